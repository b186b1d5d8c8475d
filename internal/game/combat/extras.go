package combat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/effect"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/game/runes"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

var hitLocationRoll = dice.MustParse("1d20")

// HitLocationResult is the outcome of RollHitLocation.
type HitLocationResult struct {
	Roll int
	// Location is zero and Found false when the actor has no location for Roll.
	Location inventory.HitLocation
	Found    bool
}

// RollHitLocation rolls 1d20 against the attacking actor's hit locations.
// The instance must have been rolled; its state is not changed.
func (e *Engine) RollHitLocation(ctx context.Context, attackID string) (HitLocationResult, error) {
	inst, err := e.instance(ctx, attackID)
	if err != nil {
		return HitLocationResult{}, err
	}
	if inst.State < StateRolled {
		return HitLocationResult{}, newError(CodeInvalidState, nil, "attack %s has not been rolled", inst.ID).with("attack_id", inst.ID)
	}
	actor, _, err := e.loadActor(ctx, inst.ActorID)
	if err != nil {
		return HitLocationResult{}, err
	}
	roll := e.roller.Evaluate(hitLocationRoll, false).Total()
	loc, found := actor.HitLocationFor(roll)
	return HitLocationResult{Roll: roll, Location: loc, Found: found}, nil
}

// FumbleResult is the outcome of RollFumble.
type FumbleResult struct {
	Roll    dice.RollResult
	Entry   FumbleEntry
	Found   bool
	Notices []notice.Notice
}

// RollFumble draws from the fumble table for a fumbled attack. With no table
// configured it reports FumbleTableMissing and returns no entry.
func (e *Engine) RollFumble(ctx context.Context, attackID string) (FumbleResult, error) {
	inst, err := e.instance(ctx, attackID)
	if err != nil {
		return FumbleResult{}, err
	}
	if inst.Check == nil || inst.Check.Tier != ability.Fumble {
		return FumbleResult{}, newError(CodeInvalidState, nil, "attack %s did not fumble", inst.ID).with("attack_id", inst.ID)
	}
	if e.fumbles == nil {
		return FumbleResult{Notices: e.emit(ctx, notice.New(notice.FumbleTableMissing, "table", e.fumbleRef))}, nil
	}
	roll := e.roller.Evaluate(e.fumbles.expr, false)
	entry, found := e.fumbles.Lookup(roll.Total())
	return FumbleResult{Roll: roll, Entry: entry, Found: found}, nil
}

// CheckResult is the outcome of ResolveCheck.
type CheckResult struct {
	AbilityID        string
	AbilityName      string
	Result           ability.Result
	ExperienceMarked bool
	Notices          []notice.Notice
}

// ResolveCheck rolls a plain skill or rune check with experience, outside
// any attack instance.
func (e *Engine) ResolveCheck(ctx context.Context, actorID, abilityID string, modifier int) (CheckResult, error) {
	actor, notices, err := e.loadActor(ctx, actorID)
	if err != nil {
		return CheckResult{}, err
	}
	ab, ok := actor.Ability(abilityID)
	if !ok {
		return CheckResult{}, newError(CodeNotFound, nil, "ability %q not found on actor %q", abilityID, actorID).
			with("actor_id", actorID, "ability_id", abilityID)
	}
	res, err := e.check(ab.BaseChance(), modifier)
	if err != nil {
		return CheckResult{}, err
	}
	marked, err := e.markExperience(ctx, actor.ID, ab, res.Tier)
	if err != nil {
		return CheckResult{}, err
	}
	e.logger.Debug("ability checked",
		zap.String("actor_id", actor.ID),
		zap.String("ability_id", abilityID),
		zap.Int("chance", res.Effective),
		zap.Int("roll", res.Roll),
		zap.String("tier", res.Tier.String()))
	return CheckResult{
		AbilityID:        ab.AbilityID(),
		AbilityName:      ab.AbilityName(),
		Result:           res,
		ExperienceMarked: marked,
		Notices:          e.emit(ctx, notices...),
	}, nil
}

// SetRuneChance writes a rune's chance together with the compensating write
// to its opposing rune.
func (e *Engine) SetRuneChance(ctx context.Context, actorID, runeID string, chance int) ([]notice.Notice, error) {
	actor, err := e.rawActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	updates, notices, err := runes.Balance(actor, runeID, chance)
	switch {
	case errors.Is(err, runes.ErrRuneNotFound):
		return nil, newError(CodeNotFound, err, "rune %q not found", runeID).with("actor_id", actorID, "rune_id", runeID)
	case err != nil:
		return nil, newError(CodeValidation, err, "invalid rune chance")
	}
	if err := e.store.UpdateItems(ctx, actorID, updates); err != nil {
		return nil, newError(CodeInternal, err, "persist rune chances for %q", actorID)
	}
	return e.emit(ctx, notices...), nil
}

// RemoveSource deletes the active effects orphaned by removing originID and
// returns their IDs.
func (e *Engine) RemoveSource(ctx context.Context, actorID, originID string) ([]string, error) {
	actor, err := e.rawActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	ids := effect.CollectOrphans(actor, originID)
	if len(ids) == 0 {
		return nil, nil
	}
	if err := e.store.DeleteEffects(ctx, actorID, ids); err != nil {
		return nil, newError(CodeInternal, err, "delete effects for %q", actorID)
	}
	e.logger.Info("orphaned effects removed", zap.String("actor_id", actorID), zap.String("origin", originID), zap.Strings("effect_ids", ids))
	return ids, nil
}

// ExpireAttacks drops attack instances older than ttl. Damage for an expired
// attack can no longer be resolved.
//
// Precondition: ttl > 0.
func (e *Engine) ExpireAttacks(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		panic("combat: ExpireAttacks: ttl must be positive")
	}
	n, err := e.instances.Expire(ctx, e.now().Add(-ttl))
	if err != nil {
		return 0, newError(CodeInternal, err, "expire attack instances")
	}
	if n > 0 {
		e.logger.Debug("attack instances expired", zap.Int("count", n), zap.Duration("ttl", ttl))
	}
	return n, nil
}
