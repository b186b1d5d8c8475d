// Package gameserver exposes the combat engine as the gRPC CombatService.
//
// Messages are google.protobuf.Struct values so the service needs no
// generated code; field names are documented on each handler.
package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/damage"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rqg.combat.v1.CombatService"

// CombatServer is the server API for CombatService.
type CombatServer interface {
	ResolveAttack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveDamage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollHitLocation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollFumble(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveCheck(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRuneChance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CombatService implements CombatServer over a combat.Engine.
type CombatService struct {
	engine        *combat.Engine
	printer       *notice.Printer
	defaultLocale string
	logger        *zap.Logger
}

var _ CombatServer = (*CombatService)(nil)

// NewCombatService creates a CombatService.
//
// Precondition: engine, printer and logger must be non-nil.
// Postcondition: notices in responses are rendered in the request's
// "locale" field, or defaultLocale when absent.
func NewCombatService(engine *combat.Engine, printer *notice.Printer, defaultLocale string, logger *zap.Logger) *CombatService {
	if engine == nil || printer == nil || logger == nil {
		panic("gameserver.NewCombatService: engine, printer and logger must be non-nil")
	}
	return &CombatService{engine: engine, printer: printer, defaultLocale: defaultLocale, logger: logger}
}

// Register installs s on srv.
func Register(srv grpc.ServiceRegistrar, s CombatServer) {
	srv.RegisterService(&ServiceDesc, s)
}

func (s *CombatService) locale(f fields) string {
	if l, _ := f.str("locale", false); l != "" {
		return l
	}
	return s.defaultLocale
}

func (s *CombatService) notices(locale string, ns []notice.Notice) []any {
	out := make([]any, 0, len(ns))
	for _, n := range ns {
		params := make(map[string]any, len(n.Params))
		for k, v := range n.Params {
			params[k] = v
		}
		out = append(out, map[string]any{
			"kind":   string(n.Kind),
			"params": params,
			"text":   s.printer.Render(locale, n),
		})
	}
	return out
}

func (s *CombatService) fail(method string, err error) error {
	code := combat.CodeOf(err)
	if code == combat.CodeInternal {
		s.logger.Error("combat rpc failed", zap.String("method", method), zap.Error(err))
	} else {
		s.logger.Debug("combat rpc rejected", zap.String("method", method), zap.String("code", string(code)), zap.Error(err))
	}
	return toStatus(err)
}

// ResolveAttack takes {actor_id, weapon_id, usage, maneuver, modifier?, locale?}
// and returns {attack_id, refused, tier?, roll?, chance?, experience_marked,
// damage_type, special_description, notices}.
func (s *CombatService) ResolveAttack(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	actorID, err := f.str("actor_id", true)
	if err != nil {
		return nil, err
	}
	weaponID, err := f.str("weapon_id", true)
	if err != nil {
		return nil, err
	}
	usageRaw, err := f.str("usage", true)
	if err != nil {
		return nil, err
	}
	usage, err := inventory.ParseUsageType(usageRaw)
	if err != nil {
		return nil, invalid("%v", err)
	}
	maneuver, err := f.str("maneuver", true)
	if err != nil {
		return nil, err
	}
	modifier, err := f.integer("modifier", false)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.ResolveAttack(ctx, combat.AttackRequest{
		ActorID:  actorID,
		WeaponID: weaponID,
		Usage:    usage,
		Maneuver: maneuver,
		Modifier: modifier,
	})
	if err != nil {
		return nil, s.fail("ResolveAttack", err)
	}
	out := map[string]any{
		"attack_id":           res.AttackID,
		"refused":             res.Refused,
		"experience_marked":   res.ExperienceMarked,
		"damage_type":         string(res.DamageType),
		"special_description": res.SpecialDescription,
		"notices":             s.notices(s.locale(f), res.Notices),
	}
	if !res.Refused {
		out["tier"] = res.Tier.String()
		out["roll"] = res.Roll
		out["chance"] = res.Chance
	}
	return object(out)
}

// ResolveDamage takes {attack_id, tier: normal|special|max-special, locale?}
// and returns {total, damage_type, terms: [{label, formula, value, dice}], notices}.
func (s *CombatService) ResolveDamage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	attackID, err := f.str("attack_id", true)
	if err != nil {
		return nil, err
	}
	tierRaw, err := f.str("tier", true)
	if err != nil {
		return nil, err
	}
	tier, err := damage.ParseRollTier(tierRaw)
	if err != nil {
		return nil, invalid("%v", err)
	}
	res, err := s.engine.ResolveDamage(ctx, attackID, tier)
	if err != nil {
		return nil, s.fail("ResolveDamage", err)
	}
	terms := make([]any, 0, len(res.Terms))
	for _, t := range res.Terms {
		rolled := make([]any, 0, len(t.Roll.Dice))
		for _, d := range t.Roll.Dice {
			rolled = append(rolled, d)
		}
		terms = append(terms, map[string]any{
			"label":   t.Label,
			"formula": t.Formula(),
			"value":   t.Value,
			"dice":    rolled,
		})
	}
	return object(map[string]any{
		"total":       res.Total,
		"damage_type": string(res.DamageType),
		"terms":       terms,
		"notices":     s.notices(s.locale(f), res.Notices),
	})
}

// RollHitLocation takes {attack_id} and returns {roll, found, location?: {id, name, ap}}.
func (s *CombatService) RollHitLocation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	attackID, err := newFields(in).str("attack_id", true)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.RollHitLocation(ctx, attackID)
	if err != nil {
		return nil, s.fail("RollHitLocation", err)
	}
	out := map[string]any{"roll": res.Roll, "found": res.Found}
	if res.Found {
		out["location"] = map[string]any{
			"id":   res.Location.ID,
			"name": res.Location.Name,
			"ap":   res.Location.AP,
		}
	}
	return object(out)
}

// RollFumble takes {attack_id, locale?} and returns {found, roll?, text?, notices}.
func (s *CombatService) RollFumble(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	attackID, err := f.str("attack_id", true)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.RollFumble(ctx, attackID)
	if err != nil {
		return nil, s.fail("RollFumble", err)
	}
	out := map[string]any{
		"found":   res.Found,
		"notices": s.notices(s.locale(f), res.Notices),
	}
	if res.Roll.Expression != "" {
		out["roll"] = res.Roll.Total()
	}
	if res.Found {
		out["text"] = res.Entry.Text
	}
	return object(out)
}

// ResolveCheck takes {actor_id, ability_id, modifier?, locale?} and returns
// {ability_id, ability_name, tier, roll, chance, experience_marked, notices}.
func (s *CombatService) ResolveCheck(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	actorID, err := f.str("actor_id", true)
	if err != nil {
		return nil, err
	}
	abilityID, err := f.str("ability_id", true)
	if err != nil {
		return nil, err
	}
	modifier, err := f.integer("modifier", false)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.ResolveCheck(ctx, actorID, abilityID, modifier)
	if err != nil {
		return nil, s.fail("ResolveCheck", err)
	}
	return object(map[string]any{
		"ability_id":        res.AbilityID,
		"ability_name":      res.AbilityName,
		"tier":              res.Result.Tier.String(),
		"roll":              res.Result.Roll,
		"chance":            res.Result.Effective,
		"experience_marked": res.ExperienceMarked,
		"notices":           s.notices(s.locale(f), res.Notices),
	})
}

// SetRuneChance takes {actor_id, rune_id, chance, locale?} and returns {notices}.
func (s *CombatService) SetRuneChance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	actorID, err := f.str("actor_id", true)
	if err != nil {
		return nil, err
	}
	runeID, err := f.str("rune_id", true)
	if err != nil {
		return nil, err
	}
	chance, err := f.integer("chance", true)
	if err != nil {
		return nil, err
	}
	ns, err := s.engine.SetRuneChance(ctx, actorID, runeID, chance)
	if err != nil {
		return nil, s.fail("SetRuneChance", err)
	}
	return object(map[string]any{"notices": s.notices(s.locale(f), ns)})
}

// RemoveSource takes {actor_id, origin_id} and returns {removed: [effect ids]}.
func (s *CombatService) RemoveSource(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(in)
	actorID, err := f.str("actor_id", true)
	if err != nil {
		return nil, err
	}
	originID, err := f.str("origin_id", true)
	if err != nil {
		return nil, err
	}
	ids, err := s.engine.RemoveSource(ctx, actorID, originID)
	if err != nil {
		return nil, s.fail("RemoveSource", err)
	}
	removed := make([]any, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, id)
	}
	return object(map[string]any{"removed": removed})
}

// LoggingInterceptor logs every unary call with its duration and status.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc",
			zap.String("method", info.FullMethod),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("ok", err == nil),
		)
		return resp, err
	}
}
