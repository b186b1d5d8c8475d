// Package experience decides when an ability earns its per-session experience mark.
package experience

import (
	"sync"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
)

// Tracker records which abilities have been marked in the current session.
// It only decides whether the persisted flag should be written; writing it
// is the caller's job.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	marked map[string]bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{marked: make(map[string]bool)}
}

// MarkIfEligible marks abilityID when tier is Success or better.
//
// Postcondition: returns true only on the first eligible call for abilityID
// since the last Reset; Failure and Fumble never mark.
func (t *Tracker) MarkIfEligible(abilityID string, tier ability.Tier) bool {
	if !tier.IsSuccess() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.marked[abilityID] {
		return false
	}
	t.marked[abilityID] = true
	return true
}

// Preload records abilities whose persisted flag is already set so that
// they are not written again.
func (t *Tracker) Preload(abilityIDs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range abilityIDs {
		t.marked[id] = true
	}
}

// Marked reports whether abilityID is marked.
func (t *Tracker) Marked(abilityID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.marked[abilityID]
}

// Reset clears all marks at a session boundary.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marked = make(map[string]bool)
}
