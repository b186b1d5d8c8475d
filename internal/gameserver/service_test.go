package gameserver_test

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/gameserver"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
	"github.com/cory-johannsen/rqgcombat/internal/storage/memory"
)

// seqSrc returns its values in order, then zeros.
type seqSrc struct {
	mu   sync.Mutex
	vals []int
}

func (s *seqSrc) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func archer() *inventory.Actor {
	return &inventory.Actor{
		ID: "vasana", Name: "Vasana", DamageBonus: "+1d4",
		Weapons: []inventory.Weapon{
			{
				ID: "broadsword", Name: "Broadsword", Quantity: 1,
				Usages: map[inventory.UsageType]inventory.Usage{inventory.UsageOneHand: {
					SkillID: "sword", Damage: "1d8+1",
					Maneuvers: []inventory.Maneuver{{Name: "slash", DamageType: inventory.DamageSlash}},
				}},
			},
			{
				ID: "self-bow", Name: "Self Bow", Quantity: 1, IsProjectileWeapon: true, ProjectileID: "arrows",
				Usages: map[inventory.UsageType]inventory.Usage{inventory.UsageMissile: {
					SkillID: "bow", Damage: "1d6+1",
					Maneuvers: []inventory.Maneuver{{Name: "impale", DamageType: inventory.DamageImpale}},
				}},
			},
			{ID: "arrows", Name: "Arrows", Quantity: 1},
		},
		Skills: []inventory.Skill{
			{ID: "sword", Name: "Broadsword", Chance: 60},
			{ID: "bow", Name: "Bow", Chance: 50},
		},
		Runes: []inventory.Rune{
			{ID: "air", Name: "Air", Chance: 70, OpposingRune: "earth"},
			{ID: "earth", Name: "Earth", Chance: 30, OpposingRune: "air"},
		},
		HitLocations: []inventory.HitLocation{{ID: "chest", Name: "Chest", AP: 4, Low: 1, High: 20}},
		Effects: []inventory.ActiveEffect{
			{ID: "fx-amulet", Origin: "amulet", Key: "skill:Broadsword:chance", Value: 0},
		},
	}
}

type harness struct {
	client *gameserver.Client
	store  *memory.Store
}

func newHarness(t *testing.T, vals ...int) *harness {
	t.Helper()
	store := memory.NewStore(archer())
	engine := combat.NewEngine(combat.Config{
		Store:  store,
		Roller: dice.NewLoggedRoller(&seqSrc{vals: vals}, zap.NewNop()),
		Logger: zap.NewNop(),
	})
	printer, err := notice.NewPrinter()
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(gameserver.LoggingInterceptor(zap.NewNop())))
	gameserver.Register(srv, gameserver.NewCombatService(engine, printer, "en-US", zap.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &harness{client: gameserver.NewClient(conn), store: store}
}

func req(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func requireStatus(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, want, st.Code(), st.Message())
}

func TestResolveAttack_MissingFieldIsInvalidArgument(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ResolveAttack(context.Background(), req(t, map[string]any{"weapon_id": "broadsword"}))
	requireStatus(t, err, codes.InvalidArgument)
}

func TestResolveAttack_BadUsageIsInvalidArgument(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ResolveAttack(context.Background(), req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "broadsword", "usage": "four-hand", "maneuver": "slash",
	}))
	requireStatus(t, err, codes.InvalidArgument)
}

func TestResolveAttack_FractionalModifierIsInvalidArgument(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ResolveAttack(context.Background(), req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "broadsword", "usage": "one-hand", "maneuver": "slash", "modifier": 2.5,
	}))
	requireStatus(t, err, codes.InvalidArgument)
}

func TestResolveAttack_UnknownActorCarriesCode(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ResolveAttack(context.Background(), req(t, map[string]any{
		"actor_id": "nobody", "weapon_id": "broadsword", "usage": "one-hand", "maneuver": "slash",
	}))
	requireStatus(t, err, codes.NotFound)
	assert.Equal(t, combat.CodeNotFound, gameserver.CodeFromStatus(err))
}

func TestAttackThenDamage(t *testing.T) {
	h := newHarness(t, 30)
	ctx := context.Background()

	atk, err := h.client.ResolveAttack(ctx, req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "broadsword", "usage": "one-hand", "maneuver": "slash",
	}))
	require.NoError(t, err)
	fields := atk.GetFields()
	assert.Equal(t, "success", fields["tier"].GetStringValue())
	assert.Equal(t, float64(31), fields["roll"].GetNumberValue())
	assert.Equal(t, float64(60), fields["chance"].GetNumberValue())
	assert.True(t, fields["experience_marked"].GetBoolValue())
	assert.False(t, fields["refused"].GetBoolValue())
	attackID := fields["attack_id"].GetStringValue()
	require.NotEmpty(t, attackID)

	dmg, err := h.client.ResolveDamage(ctx, req(t, map[string]any{"attack_id": attackID, "tier": "normal"}))
	require.NoError(t, err)
	terms := dmg.GetFields()["terms"].GetListValue().GetValues()
	require.Len(t, terms, 2)
	assert.Equal(t, "weapon damage", terms[0].GetStructValue().GetFields()["label"].GetStringValue())
	assert.Equal(t, "damage bonus", terms[1].GetStructValue().GetFields()["label"].GetStringValue())
	assert.Positive(t, dmg.GetFields()["total"].GetNumberValue())

	_, err = h.client.ResolveDamage(ctx, req(t, map[string]any{"attack_id": attackID, "tier": "normal"}))
	requireStatus(t, err, codes.FailedPrecondition)
	assert.Equal(t, combat.CodeInvalidState, gameserver.CodeFromStatus(err))
}

func TestResolveDamage_BadTierIsInvalidArgument(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ResolveDamage(context.Background(), req(t, map[string]any{"attack_id": "x", "tier": "huge"}))
	requireStatus(t, err, codes.InvalidArgument)
}

func TestResolveAttack_LastAmmoThenOutOfAmmoRendered(t *testing.T) {
	h := newHarness(t, 10, 10)
	ctx := context.Background()
	shoot := req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "self-bow", "usage": "missile", "maneuver": "impale", "locale": "en-US",
	})

	first, err := h.client.ResolveAttack(ctx, shoot)
	require.NoError(t, err)
	notices := first.GetFields()["notices"].GetListValue().GetValues()
	require.Len(t, notices, 1)
	n := notices[0].GetStructValue().GetFields()
	assert.Equal(t, "last_ammo_used", n["kind"].GetStringValue())
	assert.Equal(t, "That was the last Arrows for Self Bow.", n["text"].GetStringValue())

	second, err := h.client.ResolveAttack(ctx, shoot)
	require.NoError(t, err)
	assert.True(t, second.GetFields()["refused"].GetBoolValue())
	_, hasTier := second.GetFields()["tier"]
	assert.False(t, hasTier)
	notices = second.GetFields()["notices"].GetListValue().GetValues()
	require.Len(t, notices, 1)
	assert.Equal(t, "out_of_ammo", notices[0].GetStructValue().GetFields()["kind"].GetStringValue())
}

func TestRollHitLocation(t *testing.T) {
	h := newHarness(t, 30)
	ctx := context.Background()
	atk, err := h.client.ResolveAttack(ctx, req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "broadsword", "usage": "one-hand", "maneuver": "slash",
	}))
	require.NoError(t, err)

	loc, err := h.client.RollHitLocation(ctx, req(t, map[string]any{"attack_id": atk.GetFields()["attack_id"].GetStringValue()}))
	require.NoError(t, err)
	assert.True(t, loc.GetFields()["found"].GetBoolValue())
	assert.Equal(t, "Chest", loc.GetFields()["location"].GetStructValue().GetFields()["name"].GetStringValue())
}

func TestRollFumble_NotFumbledIsFailedPrecondition(t *testing.T) {
	h := newHarness(t, 30)
	ctx := context.Background()
	atk, err := h.client.ResolveAttack(ctx, req(t, map[string]any{
		"actor_id": "vasana", "weapon_id": "broadsword", "usage": "one-hand", "maneuver": "slash",
	}))
	require.NoError(t, err)
	_, err = h.client.RollFumble(ctx, req(t, map[string]any{"attack_id": atk.GetFields()["attack_id"].GetStringValue()}))
	requireStatus(t, err, codes.FailedPrecondition)
}

func TestResolveCheck(t *testing.T) {
	h := newHarness(t, 1)
	out, err := h.client.ResolveCheck(context.Background(), req(t, map[string]any{
		"actor_id": "vasana", "ability_id": "air", "modifier": -10,
	}))
	require.NoError(t, err)
	f := out.GetFields()
	assert.Equal(t, "Air", f["ability_name"].GetStringValue())
	assert.Equal(t, float64(60), f["chance"].GetNumberValue())
	assert.Equal(t, "critical success", f["tier"].GetStringValue())
	assert.True(t, f["experience_marked"].GetBoolValue())
}

func TestSetRuneChance_BalancesOpposingRune(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.client.SetRuneChance(ctx, req(t, map[string]any{"actor_id": "vasana", "rune_id": "air", "chance": 55}))
	require.NoError(t, err)

	a, err := h.store.Actor(ctx, "vasana")
	require.NoError(t, err)
	earth, _ := a.Rune("earth")
	assert.Equal(t, 45, earth.Chance)
}

func TestRemoveSource(t *testing.T) {
	h := newHarness(t)
	out, err := h.client.RemoveSource(context.Background(), req(t, map[string]any{"actor_id": "vasana", "origin_id": "amulet"}))
	require.NoError(t, err)
	removed := out.GetFields()["removed"].GetListValue().GetValues()
	require.Len(t, removed, 1)
	assert.Equal(t, "fx-amulet", removed[0].GetStringValue())
}

func TestGRPCCodeMapping(t *testing.T) {
	assert.Equal(t, codes.InvalidArgument, gameserver.GRPCCode(combat.CodeValidation))
	assert.Equal(t, codes.NotFound, gameserver.GRPCCode(combat.CodeNotFound))
	assert.Equal(t, codes.FailedPrecondition, gameserver.GRPCCode(combat.CodeInvalidState))
	assert.Equal(t, codes.FailedPrecondition, gameserver.GRPCCode(combat.CodeAmbiguousTarget))
	assert.Equal(t, codes.Internal, gameserver.GRPCCode(combat.CodeInternal))
}
