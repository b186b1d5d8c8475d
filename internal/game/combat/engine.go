// Package combat resolves weapon attacks: the ability check, ammunition,
// experience and damage of each attack instance.
package combat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/effect"
	"github.com/cory-johannsen/rqgcombat/internal/game/experience"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

// Store reads actor snapshots and persists item deltas.
type Store interface {
	// Actor returns ErrActorNotFound (wrapped) for an unknown id.
	Actor(ctx context.Context, id string) (*inventory.Actor, error)
	// UpdateItems applies updates in order; a later read observes them.
	UpdateItems(ctx context.Context, actorID string, updates []inventory.ItemUpdate) error
	// ConsumeItem decrements the stored quantity of one weapon item by one
	// and returns the new quantity. A stored quantity of 0 or a missing item
	// yields ErrItemDepleted (wrapped) and changes nothing. The check and the
	// decrement are atomic.
	ConsumeItem(ctx context.Context, actorID, itemID string) (int, error)
	// DeleteEffects removes the named active effects.
	DeleteEffects(ctx context.Context, actorID string, ids []string) error
}

// Roller evaluates dice for the engine. *dice.Roller satisfies it.
type Roller interface {
	Source() dice.Source
	Evaluate(expr dice.Expression, maximize bool) dice.RollResult
}

// Config assembles an Engine. Store and Roller are required.
type Config struct {
	Store     Store
	Roller    Roller
	Instances InstanceStore
	Checker   *ability.Checker
	Tracker   *experience.Tracker
	Maneuvers inventory.ManeuverTable
	// Fumbles may be nil; RollFumble then reports FumbleTableMissing.
	Fumbles *FumbleTable
	// FumbleTableName names the configured table in notices when Fumbles is nil.
	FumbleTableName string
	Sink            notice.Sink
	Logger          *zap.Logger
	Now             func() time.Time
	NewID           func() string
}

// Engine orchestrates attack resolution. All methods are safe for concurrent use.
type Engine struct {
	store     Store
	roller    Roller
	instances InstanceStore
	checker   *ability.Checker
	tracker   *experience.Tracker
	ledger    inventory.Ledger
	maneuvers inventory.ManeuverTable
	fumbles   *FumbleTable
	fumbleRef string
	sink      notice.Sink
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewEngine builds an Engine from cfg, filling defaults for optional fields.
//
// Precondition: cfg.Store and cfg.Roller are non-nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(cfg Config) *Engine {
	if cfg.Store == nil {
		panic("combat: NewEngine: Store must not be nil")
	}
	if cfg.Roller == nil {
		panic("combat: NewEngine: Roller must not be nil")
	}
	e := &Engine{
		store:     cfg.Store,
		roller:    cfg.Roller,
		instances: cfg.Instances,
		checker:   cfg.Checker,
		tracker:   cfg.Tracker,
		maneuvers: cfg.Maneuvers,
		fumbles:   cfg.Fumbles,
		fumbleRef: cfg.FumbleTableName,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if e.instances == nil {
		e.instances = NewMemoryInstances()
	}
	if e.checker == nil {
		e.checker = ability.NewChecker(ability.DefaultTable(), nil)
	}
	if e.tracker == nil {
		e.tracker = experience.NewTracker()
	}
	if e.maneuvers == nil {
		e.maneuvers = inventory.ManeuverTable{}
	}
	if e.fumbleRef == "" {
		e.fumbleRef = "fumbles"
	}
	if e.sink == nil {
		e.sink = notice.Discard
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = newAttackID
	}
	return e
}

// Tracker returns the session experience tracker so that callers can reset
// it at a session boundary.
func (e *Engine) Tracker() *experience.Tracker { return e.tracker }

// rawActor reads an actor as stored, without active effects.
func (e *Engine) rawActor(ctx context.Context, actorID string) (*inventory.Actor, error) {
	a, err := e.store.Actor(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrActorNotFound) {
			return nil, newError(CodeNotFound, err, "actor %q not found", actorID).with("actor_id", actorID)
		}
		return nil, newError(CodeInternal, err, "load actor %q", actorID)
	}
	return a, nil
}

// loadActor reads an actor and applies its active effects to the snapshot.
func (e *Engine) loadActor(ctx context.Context, actorID string) (*inventory.Actor, []notice.Notice, error) {
	raw, err := e.rawActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	prepared, notices, err := effect.Prepare(raw)
	if err != nil {
		if errors.Is(err, effect.ErrAmbiguousTarget) {
			return nil, nil, newError(CodeAmbiguousTarget, err, "actor %q has an ambiguous active effect", actorID).with("actor_id", actorID)
		}
		return nil, nil, newError(CodeValidation, err, "actor %q has an invalid active effect", actorID).with("actor_id", actorID)
	}
	return prepared, notices, nil
}

// emit forwards notices to the sink and returns them.
func (e *Engine) emit(ctx context.Context, notices ...notice.Notice) []notice.Notice {
	for _, n := range notices {
		if n.Kind.Misconfiguration() {
			e.logger.Warn("rule misconfiguration", zap.String("kind", string(n.Kind)), zap.Any("params", n.Params))
		}
		e.sink.Notify(ctx, n)
	}
	return notices
}

// experienceKey scopes tracker marks to one actor's ability.
func experienceKey(actorID, abilityID string) string { return actorID + "/" + abilityID }

// markExperience runs the tracker for a finished check and persists the flag
// the first time it fires.
func (e *Engine) markExperience(ctx context.Context, actorID string, ab inventory.Ability, tier ability.Tier) (bool, error) {
	key := experienceKey(actorID, ab.AbilityID())
	if ab.Experienced() {
		e.tracker.Preload(key)
	}
	if !e.tracker.MarkIfEligible(key, tier) {
		return false, nil
	}
	yes := true
	if err := e.store.UpdateItems(ctx, actorID, []inventory.ItemUpdate{{ItemID: ab.AbilityID(), HasExperience: &yes}}); err != nil {
		return false, newError(CodeInternal, err, "persist experience for %q", ab.AbilityID())
	}
	return true, nil
}

// check rolls d100 for chance with modifier. Chances above 100 keep their
// excess as modifier so that unclamped tables still see it.
func (e *Engine) check(chance, modifier int) (ability.Result, error) {
	if chance > 100 {
		modifier += chance - 100
		chance = 100
	}
	if chance < 0 {
		modifier += chance
		chance = 0
	}
	res, err := e.checker.Resolve(chance, modifier, e.roller.Source())
	if err != nil {
		return ability.Result{}, newError(CodeValidation, err, "invalid chance")
	}
	return res, nil
}

// instance loads an attack instance, mapping not-found to CodeNotFound.
func (e *Engine) instance(ctx context.Context, id string) (AttackInstance, error) {
	inst, err := e.instances.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInstanceNotFound) {
			return AttackInstance{}, newError(CodeNotFound, err, "attack %q not found", id).with("attack_id", id)
		}
		return AttackInstance{}, newError(CodeInternal, err, "load attack %q", id)
	}
	return inst, nil
}

// describe returns the text shown for a maneuver.
func (e *Engine) describe(m inventory.Maneuver) string {
	if m.DamageType == inventory.DamageSpecial && m.Description != "" {
		return m.Description
	}
	return e.maneuvers.Describe(m.Name)
}
