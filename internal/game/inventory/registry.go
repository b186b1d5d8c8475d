package inventory

import (
	"fmt"
	"sort"
)

// Registry holds loaded actor definitions indexed by ID.
type Registry struct {
	actors map[string]*Actor
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{actors: make(map[string]*Actor)}
}

// RegisterActor adds a to the registry.
//
// Precondition:  a must not be nil.
// Postcondition: Actor(a.ID) returns a; returns error if a.ID already registered.
func (r *Registry) RegisterActor(a *Actor) error {
	if _, exists := r.actors[a.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterActor: actor ID %q already registered", a.ID)
	}
	r.actors[a.ID] = a
	return nil
}

// Actor returns the Actor for the given id and whether it was found.
func (r *Registry) Actor(id string) (*Actor, bool) {
	a, ok := r.actors[id]
	return a, ok
}

// AllActors returns all registered actors sorted by ID.
//
// Postcondition: len(result) == number of registered actors.
func (r *Registry) AllActors() []*Actor {
	out := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadRegistry loads every actor in dir into a new Registry.
func LoadRegistry(dir string) (*Registry, error) {
	actors, err := LoadActors(dir)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, a := range actors {
		if err := r.RegisterActor(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}
