// Package damage composes and resolves the labeled damage terms of an attack.
package damage

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
)

// RollTier is the damage roll requested for an attack.
type RollTier int

const (
	Normal RollTier = iota
	Special
	MaxSpecial
)

func (t RollTier) String() string {
	switch t {
	case Normal:
		return "normal"
	case Special:
		return "special"
	case MaxSpecial:
		return "max-special"
	default:
		return fmt.Sprintf("RollTier(%d)", int(t))
	}
}

// IsSpecial reports whether t grants special damage.
func (t RollTier) IsSpecial() bool { return t == Special || t == MaxSpecial }

// ParseRollTier converts a String() label back to a RollTier.
func ParseRollTier(s string) (RollTier, error) {
	for t := Normal; t <= MaxSpecial; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("damage: unknown roll tier %q", s)
}

// Term labels, in composition order.
const (
	LabelWeapon       = "weapon damage"
	LabelSpecialBonus = "special/impale bonus"
	LabelCrushBonus   = "crush special bonus"
	LabelDamageBonus  = "damage bonus"
)

// Term is one signed, labeled summand of a damage expression.
type Term struct {
	Label string
	Expr  dice.Expression
	// Sign is +1 or -1 and applies to the evaluated expression.
	Sign int
	// ForceMax evaluates Expr at its maximum regardless of the outer request.
	ForceMax bool
	// Halve replaces the signed value v with ceil(v/2).
	Halve bool
}

// Formula renders the term for display, e.g. "-max(1d4)" or "ceil(1d6/2)".
func (t Term) Formula() string {
	f := t.Expr.Raw
	if t.ForceMax {
		f = "max(" + f + ")"
	}
	if t.Halve {
		f = "ceil(" + f + "/2)"
	}
	if t.Sign < 0 {
		f = "-" + f
	}
	return f
}

func (t Term) String() string { return t.Label + ": " + t.Formula() }

// splitSign separates one leading sign from formula.
func splitSign(formula string) (int, string) {
	f := strings.TrimSpace(formula)
	switch {
	case strings.HasPrefix(f, "-"):
		return -1, strings.TrimSpace(f[1:])
	case strings.HasPrefix(f, "+"):
		return 1, strings.TrimSpace(f[1:])
	}
	return 1, f
}

// ceilHalf returns ceil(v/2) for any sign of v.
func ceilHalf(v int) int {
	if v >= 0 {
		return (v + 1) / 2
	}
	return v / 2
}
