package combat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/damage"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
)

// State is the lifecycle position of an attack instance. Transitions only
// move forward, one step at a time.
type State int

const (
	StateIdle State = iota
	StateMayRoll
	StateRolled
	StateDamagePending
	StateDamageResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMayRoll:
		return "may-roll"
	case StateRolled:
		return "rolled"
	case StateDamagePending:
		return "damage-pending"
	case StateDamageResolved:
		return "damage-resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState converts a String() label back to a State.
func ParseState(s string) (State, error) {
	for st := StateIdle; st <= StateDamageResolved; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("combat: unknown state %q", s)
}

// AttackInstance carries one attack from its check to its damage.
type AttackInstance struct {
	ID       string              `json:"id"`
	ActorID  string              `json:"actor_id"`
	WeaponID string              `json:"weapon_id"`
	SkillID  string              `json:"skill_id"`
	Usage    inventory.UsageType `json:"usage"`
	Maneuver inventory.Maneuver  `json:"maneuver"`
	Modifier int                 `json:"modifier"`
	State    State               `json:"state"`
	// Check is nil until the instance reaches StateRolled.
	Check *ability.Result `json:"check,omitempty"`
	// DamageTier is set on entering StateDamagePending.
	DamageTier  damage.RollTier `json:"damage_tier"`
	DamageTotal int             `json:"damage_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// advance moves the instance exactly one state forward to to.
func (a *AttackInstance) advance(to State) error {
	if to != a.State+1 {
		return newError(CodeInvalidState, nil, "attack %s cannot move from %s to %s", a.ID, a.State, to).
			with("attack_id", a.ID, "state", a.State.String())
	}
	a.State = to
	return nil
}

// InstanceStore keeps attack instances between the attack and damage calls.
type InstanceStore interface {
	// Create stores a new instance.
	Create(ctx context.Context, inst AttackInstance) error
	// Get returns ErrInstanceNotFound (wrapped) for an unknown id.
	Get(ctx context.Context, id string) (AttackInstance, error)
	// Advance replaces the stored instance if its stored state is still
	// from, and returns ErrStaleState otherwise.
	Advance(ctx context.Context, inst AttackInstance, from State) error
	// Expire deletes every instance created before cutoff, whatever its
	// state, and returns how many were removed.
	Expire(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryInstances is an in-process InstanceStore.
type MemoryInstances struct {
	mu        sync.Mutex
	instances map[string]AttackInstance
}

// NewMemoryInstances returns an empty MemoryInstances.
func NewMemoryInstances() *MemoryInstances {
	return &MemoryInstances{instances: make(map[string]AttackInstance)}
}

// Create implements InstanceStore.
func (m *MemoryInstances) Create(_ context.Context, inst AttackInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.instances[inst.ID]; exists {
		return fmt.Errorf("combat: attack instance %q already exists", inst.ID)
	}
	m.instances[inst.ID] = inst
	return nil
}

// Get implements InstanceStore.
func (m *MemoryInstances) Get(_ context.Context, id string) (AttackInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return AttackInstance{}, fmt.Errorf("%w: %q", ErrInstanceNotFound, id)
	}
	return inst, nil
}

// Advance implements InstanceStore.
func (m *MemoryInstances) Advance(_ context.Context, inst AttackInstance, from State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.instances[inst.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInstanceNotFound, inst.ID)
	}
	if cur.State != from {
		return fmt.Errorf("%w: %q is %s, expected %s", ErrStaleState, inst.ID, cur.State, from)
	}
	m.instances[inst.ID] = inst
	return nil
}

// Expire implements InstanceStore.
func (m *MemoryInstances) Expire(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, inst := range m.instances {
		if inst.CreatedAt.Before(cutoff) {
			delete(m.instances, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored instances.
func (m *MemoryInstances) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}
