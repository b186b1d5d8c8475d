// Package inventory provides the typed item variants an actor owns (weapons,
// skills, runes, hit locations, active effects), their YAML loaders, and the
// ammunition ledger used by attack resolution.
package inventory

import (
	"errors"
	"fmt"
)

// UsageType names one mode of employing a weapon.
type UsageType string

const (
	UsageOneHand UsageType = "one-hand"
	UsageOffHand UsageType = "off-hand"
	UsageTwoHand UsageType = "two-hand"
	UsageMissile UsageType = "missile"
)

var validUsages = map[UsageType]bool{
	UsageOneHand: true,
	UsageOffHand: true,
	UsageTwoHand: true,
	UsageMissile: true,
}

// ParseUsageType validates s as a UsageType.
func ParseUsageType(s string) (UsageType, error) {
	u := UsageType(s)
	if !validUsages[u] {
		return "", fmt.Errorf("inventory: unknown usage type %q", s)
	}
	return u, nil
}

// DamageType is how a combat maneuver inflicts damage.
type DamageType string

const (
	DamageSlash   DamageType = "slash"
	DamageImpale  DamageType = "impale"
	DamageCrush   DamageType = "crush"
	DamageParry   DamageType = "parry"
	DamageSpecial DamageType = "special"
	DamageNone    DamageType = "none"
)

var validDamageTypes = map[DamageType]bool{
	DamageSlash:   true,
	DamageImpale:  true,
	DamageCrush:   true,
	DamageParry:   true,
	DamageSpecial: true,
	DamageNone:    true,
}

// ExpendsAmmo reports whether a missile attack with this damage type uses up a projectile.
func (d DamageType) ExpendsAmmo() bool {
	return d != DamageParry && d != DamageSpecial
}

// Maneuver is a named attack option on a weapon usage.
type Maneuver struct {
	Name       string     `yaml:"name" json:"name"`
	DamageType DamageType `yaml:"damage_type" json:"damage_type"`
	// Description is shown for special maneuvers.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Usage is one mode of a weapon with its own skill, damage formula and maneuvers.
type Usage struct {
	SkillID   string     `yaml:"skill" json:"skill"`
	Damage    string     `yaml:"damage" json:"damage"`
	Maneuvers []Maneuver `yaml:"maneuvers" json:"maneuvers"`
}

// Maneuver returns the maneuver with the given name.
func (u Usage) Maneuver(name string) (Maneuver, bool) {
	for _, m := range u.Maneuvers {
		if m.Name == name {
			return m, true
		}
	}
	return Maneuver{}, false
}

// Weapon is a weapon item. Projectiles such as arrows are weapons too; their
// Quantity is the ammunition stock.
type Weapon struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Quantity int    `yaml:"quantity" json:"quantity"`
	// IsProjectileWeapon marks launchers that draw from ProjectileID.
	IsProjectileWeapon bool `yaml:"projectile_weapon" json:"projectile_weapon"`
	// IsThrownWeapon marks weapons that are themselves expended when thrown.
	IsThrownWeapon bool                `yaml:"thrown_weapon" json:"thrown_weapon"`
	ProjectileID   string              `yaml:"projectile_id" json:"projectile_id"`
	Usages         map[UsageType]Usage `yaml:"usages" json:"usages"`
}

// Usage returns the usage descriptor for ut.
func (w *Weapon) Usage(ut UsageType) (Usage, bool) {
	u, ok := w.Usages[ut]
	return u, ok
}

// AmmoSourceID returns the ID of the item whose quantity a missile attack
// with this weapon decrements: the linked projectile for launchers, the
// weapon itself otherwise.
func (w *Weapon) AmmoSourceID() string {
	if w.IsProjectileWeapon {
		return w.ProjectileID
	}
	return w.ID
}

// Validate checks that the Weapon satisfies its invariants.
//
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *Weapon) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if w.Quantity < 0 {
		errs = append(errs, fmt.Errorf("Quantity must be >= 0, got %d", w.Quantity))
	}
	if w.IsProjectileWeapon && w.ProjectileID == "" {
		errs = append(errs, errors.New("projectile weapon requires ProjectileID"))
	}
	for ut, u := range w.Usages {
		if !validUsages[ut] {
			errs = append(errs, fmt.Errorf("unknown usage type %q", ut))
		}
		seen := make(map[string]bool, len(u.Maneuvers))
		for _, m := range u.Maneuvers {
			if m.Name == "" {
				errs = append(errs, fmt.Errorf("usage %q has a maneuver without a name", ut))
			}
			if seen[m.Name] {
				errs = append(errs, fmt.Errorf("usage %q declares maneuver %q twice", ut, m.Name))
			}
			seen[m.Name] = true
			if !validDamageTypes[m.DamageType] {
				errs = append(errs, fmt.Errorf("usage %q maneuver %q has unknown damage type %q", ut, m.Name, m.DamageType))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q validation failed: %v", w.ID, errs)
	}
	return nil
}

func (w Weapon) clone() Weapon {
	if w.Usages == nil {
		return w
	}
	usages := make(map[UsageType]Usage, len(w.Usages))
	for k, u := range w.Usages {
		u.Maneuvers = append([]Maneuver(nil), u.Maneuvers...)
		usages[k] = u
	}
	w.Usages = usages
	return w
}
