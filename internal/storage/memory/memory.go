// Package memory provides an in-process actor store seeded from YAML content.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
)

// Store keeps actors in memory. Reads return copies; writes are applied
// atomically per call. All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	actors map[string]*inventory.Actor
}

// NewStore returns a Store holding copies of actors.
func NewStore(actors ...*inventory.Actor) *Store {
	s := &Store{actors: make(map[string]*inventory.Actor, len(actors))}
	for _, a := range actors {
		s.actors[a.ID] = a.Clone()
	}
	return s
}

// FromRegistry returns a Store seeded with every actor in reg.
func FromRegistry(reg *inventory.Registry) *Store {
	return NewStore(reg.AllActors()...)
}

// Put inserts or replaces an actor.
func (s *Store) Put(a *inventory.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[a.ID] = a.Clone()
}

// Actor implements combat.Store.
func (s *Store) Actor(_ context.Context, id string) (*inventory.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", combat.ErrActorNotFound, id)
	}
	return a.Clone(), nil
}

// UpdateItems implements combat.Store. Either every update applies or none does.
func (s *Store) UpdateItems(_ context.Context, actorID string, updates []inventory.ItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return fmt.Errorf("%w: %q", combat.ErrActorNotFound, actorID)
	}
	next := a.Clone()
	for _, u := range updates {
		if err := next.Apply(u); err != nil {
			return err
		}
	}
	s.actors[actorID] = next
	return nil
}

// ConsumeItem implements combat.Store. The check and decrement happen under
// one write lock.
func (s *Store) ConsumeItem(_ context.Context, actorID, itemID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", combat.ErrActorNotFound, actorID)
	}
	w, ok := a.Weapon(itemID)
	if !ok || w.Quantity <= 0 {
		return 0, fmt.Errorf("%w: %q on actor %q", combat.ErrItemDepleted, itemID, actorID)
	}
	w.Quantity--
	return w.Quantity, nil
}

// DeleteEffects implements combat.Store.
func (s *Store) DeleteEffects(_ context.Context, actorID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return fmt.Errorf("%w: %q", combat.ErrActorNotFound, actorID)
	}
	a.RemoveEffects(ids)
	return nil
}

var _ combat.Store = (*Store)(nil)
