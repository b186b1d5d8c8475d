package combat

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/damage"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

func newAttackID() string { return uuid.NewString() }

// AttackRequest selects a weapon usage and maneuver for one attack.
type AttackRequest struct {
	ActorID  string
	WeaponID string
	Usage    inventory.UsageType
	Maneuver string
	Modifier int
}

// AttackResult is the outcome of ResolveAttack.
type AttackResult struct {
	// AttackID is empty when the attack was refused.
	AttackID string
	Tier     ability.Tier
	Roll     int
	// Chance is the effective chance the roll was compared against.
	Chance int
	// Refused is set when the attack could not be resourced; nothing was rolled.
	Refused            bool
	Notices            []notice.Notice
	SpecialDescription string
	ExperienceMarked   bool
	DamageType         inventory.DamageType
}

// ResolveAttack validates the request, consumes ammunition, runs the ability
// check and marks experience.
//
// Postcondition: an attack whose ammunition is depleted returns Refused with
// an OutOfAmmo notice and a nil error, having changed nothing and rolled
// nothing. Otherwise the returned AttackID names an instance in StateRolled.
func (e *Engine) ResolveAttack(ctx context.Context, req AttackRequest) (AttackResult, error) {
	actor, notices, err := e.loadActor(ctx, req.ActorID)
	if err != nil {
		return AttackResult{}, err
	}
	weapon, ok := actor.Weapon(req.WeaponID)
	if !ok {
		return AttackResult{}, newError(CodeNotFound, nil, "weapon %q not found on actor %q", req.WeaponID, req.ActorID).
			with("actor_id", req.ActorID, "weapon_id", req.WeaponID)
	}
	usage, ok := weapon.Usage(req.Usage)
	if !ok {
		return AttackResult{}, newError(CodeValidation, nil, "weapon %q has no %q usage", weapon.Name, req.Usage).
			with("weapon_id", weapon.ID, "usage", string(req.Usage))
	}
	maneuver, ok := usage.Maneuver(req.Maneuver)
	if !ok {
		return AttackResult{}, newError(CodeValidation, nil, "weapon %q %s usage has no maneuver %q", weapon.Name, req.Usage, req.Maneuver).
			with("weapon_id", weapon.ID, "maneuver", req.Maneuver)
	}
	skill, ok := actor.Skill(usage.SkillID)
	if !ok {
		return AttackResult{}, newError(CodeInternal, nil, "weapon %q %s usage links missing skill %q", weapon.Name, req.Usage, usage.SkillID).
			with("weapon_id", weapon.ID, "skill_id", usage.SkillID)
	}

	inst := AttackInstance{
		ID:        e.newID(),
		ActorID:   actor.ID,
		WeaponID:  weapon.ID,
		SkillID:   skill.ID,
		Usage:     req.Usage,
		Maneuver:  maneuver,
		Modifier:  req.Modifier,
		State:     StateIdle,
		CreatedAt: e.now(),
	}
	log := e.logger.With(zap.String("attack_id", inst.ID), zap.String("actor_id", actor.ID), zap.String("weapon_id", weapon.ID))
	result := AttackResult{SpecialDescription: e.describe(maneuver), DamageType: maneuver.DamageType}
	result.Notices = e.emit(ctx, notices...)

	refuse := func(stockID, name string) (AttackResult, error) {
		if name == "" {
			name = weapon.Name
		}
		log.Info("attack refused: out of ammo", zap.String("stock_id", stockID))
		result.Refused = true
		result.Notices = append(result.Notices, e.emit(ctx, notice.New(notice.OutOfAmmo, "weapon", name))...)
		return result, nil
	}

	// The prepared snapshot screens; the stored quantity decides and drops
	// by exactly one.
	consumed := e.ledger.Consume(actor, weapon, req.Usage, maneuver.DamageType)
	switch consumed.Status {
	case inventory.ConsumeDepleted:
		return refuse(consumed.ItemID, consumed.ItemName)
	case inventory.ConsumeOK:
		after, err := e.store.ConsumeItem(ctx, actor.ID, consumed.ItemID)
		if errors.Is(err, ErrItemDepleted) {
			return refuse(consumed.ItemID, consumed.ItemName)
		}
		if err != nil {
			return AttackResult{}, newError(CodeInternal, err, "persist ammunition for %q", consumed.ItemID)
		}
		if after == 0 {
			result.Notices = append(result.Notices, e.emit(ctx, notice.New(notice.LastAmmoUsed,
				"projectile", consumed.ItemName, "weapon", weapon.Name))...)
		}
	}
	if err := inst.advance(StateMayRoll); err != nil {
		return AttackResult{}, err
	}

	check, err := e.check(skill.Chance, req.Modifier)
	if err != nil {
		return AttackResult{}, err
	}
	inst.Check = &check
	if err := inst.advance(StateRolled); err != nil {
		return AttackResult{}, err
	}
	log.Debug("attack rolled",
		zap.String("maneuver", maneuver.Name),
		zap.Int("chance", check.Effective),
		zap.Int("roll", check.Roll),
		zap.String("tier", check.Tier.String()))

	marked, err := e.markExperience(ctx, actor.ID, skill, check.Tier)
	if err != nil {
		return AttackResult{}, err
	}
	if err := e.instances.Create(ctx, inst); err != nil {
		return AttackResult{}, newError(CodeInternal, err, "store attack %q", inst.ID)
	}

	result.AttackID = inst.ID
	result.Tier = check.Tier
	result.Roll = check.Roll
	result.Chance = check.Effective
	result.ExperienceMarked = marked
	return result, nil
}

// DamageResult is the outcome of ResolveDamage.
type DamageResult struct {
	Total      int
	Terms      []damage.ResolvedTerm
	Notices    []notice.Notice
	DamageType inventory.DamageType
}

// ResolveDamage builds and rolls the damage for a rolled attack instance.
//
// Postcondition: succeeds at most once per instance; later calls return
// CodeInvalidState. A validation failure leaves the instance in StateRolled.
func (e *Engine) ResolveDamage(ctx context.Context, attackID string, tier damage.RollTier) (DamageResult, error) {
	inst, err := e.instance(ctx, attackID)
	if err != nil {
		return DamageResult{}, err
	}
	if inst.State != StateRolled {
		return DamageResult{}, newError(CodeInvalidState, nil, "attack %s is %s, damage needs %s", inst.ID, inst.State, StateRolled).
			with("attack_id", inst.ID, "state", inst.State.String())
	}
	// Effect notices were emitted when the attack was rolled.
	actor, _, err := e.loadActor(ctx, inst.ActorID)
	if err != nil {
		return DamageResult{}, err
	}
	weapon, ok := actor.Weapon(inst.WeaponID)
	if !ok {
		return DamageResult{}, newError(CodeInternal, nil, "weapon %q of attack %s is gone", inst.WeaponID, inst.ID)
	}
	usage, _ := weapon.Usage(inst.Usage)

	plan, err := damage.Build(damage.Request{
		WeaponName:  weapon.Name,
		BaseFormula: usage.Damage,
		DamageBonus: actor.DamageBonus,
		Maneuver:    inst.Maneuver,
		Siblings:    siblings(usage.Maneuvers, inst.Maneuver.Name),
		Usage:       inst.Usage,
		Thrown:      weapon.IsThrownWeapon,
		Tier:        tier,
	})
	if err != nil {
		return DamageResult{}, newError(CodeValidation, err, "cannot build %s damage for attack %s", tier, inst.ID).
			with("attack_id", inst.ID, "roll_tier", tier.String())
	}

	from := inst.State
	inst.DamageTier = tier
	if err := inst.advance(StateDamagePending); err != nil {
		return DamageResult{}, err
	}
	if err := e.instances.Advance(ctx, inst, from); err != nil {
		return DamageResult{}, e.advanceError(inst, err)
	}

	total, resolved := damage.Resolve(plan.Terms, tier == damage.MaxSpecial, e.roller)
	inst.DamageTotal = total
	if err := inst.advance(StateDamageResolved); err != nil {
		return DamageResult{}, err
	}
	if err := e.instances.Advance(ctx, inst, StateDamagePending); err != nil {
		return DamageResult{}, e.advanceError(inst, err)
	}
	e.logger.Debug("damage resolved",
		zap.String("attack_id", inst.ID),
		zap.String("roll_tier", tier.String()),
		zap.String("damage_type", string(plan.DamageType)),
		zap.Int("total", total),
		zap.String("terms", termSummary(resolved)))

	out := DamageResult{Total: total, Terms: resolved, DamageType: plan.DamageType}
	out.Notices = e.emit(ctx, plan.Notices...)
	return out, nil
}

func (e *Engine) advanceError(inst AttackInstance, err error) error {
	if errors.Is(err, ErrStaleState) {
		return newError(CodeInvalidState, err, "attack %s was resolved concurrently", inst.ID).with("attack_id", inst.ID)
	}
	return newError(CodeInternal, err, "store attack %s", inst.ID)
}

// siblings returns the usage's maneuvers other than name.
func siblings(all []inventory.Maneuver, name string) []inventory.Maneuver {
	out := make([]inventory.Maneuver, 0, len(all))
	for _, m := range all {
		if m.Name != name {
			out = append(out, m)
		}
	}
	return out
}

func termSummary(terms []damage.ResolvedTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.Term.String() + " = " + strconv.Itoa(t.Value)
	}
	return strings.Join(parts, "; ")
}
