package inventory

import (
	"errors"
	"fmt"
)

// ItemKind names one of the closed set of item variants an actor carries.
type ItemKind string

const (
	KindWeapon      ItemKind = "weapon"
	KindSkill       ItemKind = "skill"
	KindRune        ItemKind = "rune"
	KindHitLocation ItemKind = "hitLocation"
)

// Actor is a combatant and the items it owns.
type Actor struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// DamageBonus is a dice formula such as "+1d4" or "-1d4"; empty means none.
	DamageBonus  string         `yaml:"damage_bonus" json:"damage_bonus"`
	Weapons      []Weapon       `yaml:"weapons" json:"weapons"`
	Skills       []Skill        `yaml:"skills" json:"skills"`
	Runes        []Rune         `yaml:"runes" json:"runes"`
	HitLocations []HitLocation  `yaml:"hit_locations" json:"hit_locations"`
	Effects      []ActiveEffect `yaml:"effects" json:"effects"`
}

// Ability is implemented by every item variant that carries a percentile chance.
type Ability interface {
	AbilityID() string
	AbilityName() string
	BaseChance() int
	Experienced() bool
}

// Skill is a learned ability with a percentile chance.
type Skill struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Chance        int    `yaml:"chance" json:"chance"`
	HasExperience bool   `yaml:"has_experience" json:"has_experience"`
}

func (s *Skill) AbilityID() string   { return s.ID }
func (s *Skill) AbilityName() string { return s.Name }
func (s *Skill) BaseChance() int     { return s.Chance }
func (s *Skill) Experienced() bool   { return s.HasExperience }

// Rune is an elemental or power rune affinity. A rune may be paired with an
// opposing rune whose chance is expected to sum with this one to 100.
type Rune struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Chance        int    `yaml:"chance" json:"chance"`
	OpposingRune  string `yaml:"opposing_rune" json:"opposing_rune"`
	HasExperience bool   `yaml:"has_experience" json:"has_experience"`
}

func (r *Rune) AbilityID() string   { return r.ID }
func (r *Rune) AbilityName() string { return r.Name }
func (r *Rune) BaseChance() int     { return r.Chance }
func (r *Rune) Experienced() bool   { return r.HasExperience }

// HitLocation is a body location selected by a 1d20 roll in [Low, High].
type HitLocation struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	AP   int    `yaml:"ap" json:"ap"`
	Low  int    `yaml:"low" json:"low"`
	High int    `yaml:"high" json:"high"`
}

// Contains reports whether roll selects this location.
func (h HitLocation) Contains(roll int) bool { return roll >= h.Low && roll <= h.High }

// ActiveEffect adjusts one numeric field of one item.
//
// Key has the form "kind:name:field", e.g. "skill:Dodge:chance".
type ActiveEffect struct {
	ID       string `yaml:"id" json:"id"`
	Origin   string `yaml:"origin" json:"origin"`
	Key      string `yaml:"key" json:"key"`
	Value    int    `yaml:"value" json:"value"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// ItemUpdate is a partial write to one item; nil fields are left unchanged.
type ItemUpdate struct {
	ItemID        string `json:"item_id"`
	Quantity      *int   `json:"quantity,omitempty"`
	Chance        *int   `json:"chance,omitempty"`
	HasExperience *bool  `json:"has_experience,omitempty"`
}

// Weapon returns the weapon with the given id.
func (a *Actor) Weapon(id string) (*Weapon, bool) {
	for i := range a.Weapons {
		if a.Weapons[i].ID == id {
			return &a.Weapons[i], true
		}
	}
	return nil, false
}

// Skill returns the skill with the given id.
func (a *Actor) Skill(id string) (*Skill, bool) {
	for i := range a.Skills {
		if a.Skills[i].ID == id {
			return &a.Skills[i], true
		}
	}
	return nil, false
}

// Rune returns the rune with the given id.
func (a *Actor) Rune(id string) (*Rune, bool) {
	for i := range a.Runes {
		if a.Runes[i].ID == id {
			return &a.Runes[i], true
		}
	}
	return nil, false
}

// Ability returns the skill or rune with the given id.
func (a *Actor) Ability(id string) (Ability, bool) {
	if s, ok := a.Skill(id); ok {
		return s, true
	}
	if r, ok := a.Rune(id); ok {
		return r, true
	}
	return nil, false
}

// HitLocationFor returns the location whose range contains roll.
func (a *Actor) HitLocationFor(roll int) (HitLocation, bool) {
	for _, h := range a.HitLocations {
		if h.Contains(roll) {
			return h, true
		}
	}
	return HitLocation{}, false
}

// Clone returns a deep copy that may be mutated without affecting a.
func (a *Actor) Clone() *Actor {
	out := *a
	out.Weapons = make([]Weapon, len(a.Weapons))
	for i, w := range a.Weapons {
		out.Weapons[i] = w.clone()
	}
	out.Skills = append([]Skill(nil), a.Skills...)
	out.Runes = append([]Rune(nil), a.Runes...)
	out.HitLocations = append([]HitLocation(nil), a.HitLocations...)
	out.Effects = append([]ActiveEffect(nil), a.Effects...)
	return &out
}

// ErrItemNotFound is returned when an update names an item the actor does not own.
var ErrItemNotFound = errors.New("inventory: item not found")

// Apply writes u to the matching item.
//
// Postcondition: returns ErrItemNotFound (wrapped) if no item has u.ItemID,
// or an error if u sets a field the item kind does not have.
func (a *Actor) Apply(u ItemUpdate) error {
	if w, ok := a.Weapon(u.ItemID); ok {
		if u.Chance != nil || u.HasExperience != nil {
			return fmt.Errorf("inventory: weapon %q has no chance or experience field", u.ItemID)
		}
		if u.Quantity != nil {
			if *u.Quantity < 0 {
				return fmt.Errorf("inventory: weapon %q quantity must be >= 0, got %d", u.ItemID, *u.Quantity)
			}
			w.Quantity = *u.Quantity
		}
		return nil
	}
	if s, ok := a.Skill(u.ItemID); ok {
		if u.Quantity != nil {
			return fmt.Errorf("inventory: skill %q has no quantity field", u.ItemID)
		}
		if u.Chance != nil {
			s.Chance = *u.Chance
		}
		if u.HasExperience != nil {
			s.HasExperience = *u.HasExperience
		}
		return nil
	}
	if r, ok := a.Rune(u.ItemID); ok {
		if u.Quantity != nil {
			return fmt.Errorf("inventory: rune %q has no quantity field", u.ItemID)
		}
		if u.Chance != nil {
			r.Chance = *u.Chance
		}
		if u.HasExperience != nil {
			r.HasExperience = *u.HasExperience
		}
		return nil
	}
	return fmt.Errorf("%w: %q on actor %q", ErrItemNotFound, u.ItemID, a.ID)
}

// RemoveEffects drops the effects whose IDs are listed and returns how many were removed.
func (a *Actor) RemoveEffects(ids []string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := a.Effects[:0]
	for _, e := range a.Effects {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	removed := len(a.Effects) - len(kept)
	a.Effects = kept
	return removed
}

// Validate checks identifiers, chance ranges and cross references.
func (a *Actor) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	seen := make(map[string]bool)
	dup := func(id string) {
		if id == "" {
			errs = append(errs, errors.New("item ID must not be empty"))
			return
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate item ID %q", id))
		}
		seen[id] = true
	}
	for i := range a.Weapons {
		dup(a.Weapons[i].ID)
		if err := a.Weapons[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range a.Skills {
		dup(s.ID)
		if s.Chance < 0 || s.Chance > 100 {
			errs = append(errs, fmt.Errorf("skill %q chance must be within [0, 100], got %d", s.ID, s.Chance))
		}
	}
	for _, r := range a.Runes {
		dup(r.ID)
		if r.Chance < 0 || r.Chance > 100 {
			errs = append(errs, fmt.Errorf("rune %q chance must be within [0, 100], got %d", r.ID, r.Chance))
		}
	}
	for _, h := range a.HitLocations {
		dup(h.ID)
		if h.Low > h.High {
			errs = append(errs, fmt.Errorf("hit location %q has low %d > high %d", h.ID, h.Low, h.High))
		}
	}
	for _, w := range a.Weapons {
		for ut, u := range w.Usages {
			if u.SkillID == "" {
				continue
			}
			if _, ok := a.Skill(u.SkillID); !ok {
				errs = append(errs, fmt.Errorf("weapon %q usage %q references unknown skill %q", w.ID, ut, u.SkillID))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("actor %q validation failed: %w", a.ID, errors.Join(errs...))
	}
	return nil
}
