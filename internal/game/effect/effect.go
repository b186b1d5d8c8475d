// Package effect applies custom active effects to an actor snapshot and finds
// effects that no longer have a source.
package effect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

var (
	// ErrMalformedKey is returned for keys not of the form "kind:name:field".
	ErrMalformedKey = errors.New("effect: malformed key")
	// ErrUnknownField is returned when the field is not valid for the item kind.
	ErrUnknownField = errors.New("effect: unknown field")
	// ErrAmbiguousTarget is returned when a key matches more than one item.
	ErrAmbiguousTarget = errors.New("effect: ambiguous target")
)

// Status is the outcome of applying one effect.
type Status int

const (
	Applied Status = iota
	// Misconfigured means the effect has an origin but matched no item.
	Misconfigured
	// Orphaned means the effect has no origin and matched no item.
	Orphaned
	Disabled
)

// Key is a parsed "kind:name:field" effect key.
type Key struct {
	Kind  inventory.ItemKind
	Name  string
	Field string
}

// ParseKey splits s into its three parts and checks the field against the kind.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	k := Key{Kind: inventory.ItemKind(parts[0]), Name: parts[1], Field: parts[2]}
	if !validField(k.Kind, k.Field) {
		return Key{}, fmt.Errorf("%w: %q on %s", ErrUnknownField, k.Field, k.Kind)
	}
	return k, nil
}

func validField(kind inventory.ItemKind, field string) bool {
	switch kind {
	case inventory.KindSkill, inventory.KindRune:
		return field == "chance"
	case inventory.KindWeapon:
		return field == "quantity"
	case inventory.KindHitLocation:
		return field == "ap"
	}
	return false
}

// targets returns pointers to the numeric field of every item matching k.
func targets(a *inventory.Actor, k Key) []*int {
	var out []*int
	switch k.Kind {
	case inventory.KindSkill:
		for i := range a.Skills {
			if a.Skills[i].Name == k.Name {
				out = append(out, &a.Skills[i].Chance)
			}
		}
	case inventory.KindRune:
		for i := range a.Runes {
			if a.Runes[i].Name == k.Name {
				out = append(out, &a.Runes[i].Chance)
			}
		}
	case inventory.KindWeapon:
		for i := range a.Weapons {
			if a.Weapons[i].Name == k.Name {
				out = append(out, &a.Weapons[i].Quantity)
			}
		}
	case inventory.KindHitLocation:
		for i := range a.HitLocations {
			if a.HitLocations[i].Name == k.Name {
				out = append(out, &a.HitLocations[i].AP)
			}
		}
	}
	return out
}

// Apply adds eff.Value to the single item field eff.Key names.
//
// Postcondition: mutates a only when the returned status is Applied. A key
// matching several items returns ErrAmbiguousTarget. A misconfigured effect
// yields an EffectMisconfigured notice; an orphaned one an EffectOrphaned
// notice. Neither is removed here.
func Apply(a *inventory.Actor, eff inventory.ActiveEffect) (Status, []notice.Notice, error) {
	if eff.Disabled {
		return Disabled, nil, nil
	}
	k, err := ParseKey(eff.Key)
	if err != nil {
		return 0, nil, fmt.Errorf("effect %q: %w", eff.ID, err)
	}
	fields := targets(a, k)
	switch len(fields) {
	case 1:
		*fields[0] += eff.Value
		return Applied, nil, nil
	case 0:
		if eff.Origin != "" {
			return Misconfigured, []notice.Notice{notice.New(notice.EffectMisconfigured,
				"effect", eff.ID, "key", eff.Key, "origin", eff.Origin)}, nil
		}
		return Orphaned, []notice.Notice{notice.New(notice.EffectOrphaned, "effect", eff.ID, "key", eff.Key)}, nil
	default:
		return 0, nil, fmt.Errorf("%w: effect %q key %q matches %d items", ErrAmbiguousTarget, eff.ID, eff.Key, len(fields))
	}
}

// Prepare returns a copy of a with every enabled effect applied, plus the
// notices raised along the way. a itself is not modified.
func Prepare(a *inventory.Actor) (*inventory.Actor, []notice.Notice, error) {
	out := a.Clone()
	var notices []notice.Notice
	for _, eff := range a.Effects {
		_, ns, err := Apply(out, eff)
		if err != nil {
			return nil, nil, err
		}
		notices = append(notices, ns...)
	}
	return out, notices, nil
}

// CollectOrphans returns the IDs of effects to delete once removedOrigin is
// gone: those originating from it, and origin-less effects that match no item.
// Pass "" to collect only the origin-less orphans.
func CollectOrphans(a *inventory.Actor, removedOrigin string) []string {
	var ids []string
	for _, eff := range a.Effects {
		if removedOrigin != "" && eff.Origin == removedOrigin {
			ids = append(ids, eff.ID)
			continue
		}
		if eff.Origin != "" {
			continue
		}
		k, err := ParseKey(eff.Key)
		if err != nil {
			continue
		}
		if len(targets(a, k)) == 0 {
			ids = append(ids, eff.ID)
		}
	}
	return ids
}
