// Package ability resolves percentile ability checks into discrete success tiers.
package ability

import "fmt"

// Tier is the classified outcome of a percentile check, ordered best first.
type Tier int

const (
	CriticalSuccess Tier = iota
	SpecialSuccess
	Success
	Failure
	Fumble
)

// String returns a human-readable tier label.
func (t Tier) String() string {
	switch t {
	case CriticalSuccess:
		return "critical success"
	case SpecialSuccess:
		return "special success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Fumble:
		return "fumble"
	default:
		return "unknown"
	}
}

// IsSuccess reports whether t is Success or better.
func (t Tier) IsSuccess() bool { return t <= Success }

// BetterThan reports whether t is a strictly better outcome than other.
func (t Tier) BetterThan(other Tier) bool { return t < other }

// ParseTier converts a String() label back to a Tier.
func ParseTier(s string) (Tier, error) {
	for t := CriticalSuccess; t <= Fumble; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("ability: unknown tier %q", s)
}

// Result is the immutable outcome of one check.
type Result struct {
	// Chance is the base chance before the modifier.
	Chance int
	// Modifier is the situational modifier applied to Chance.
	Modifier int
	// Effective is the chance the roll was compared against.
	Effective int
	// Roll is the d100 value in [1, 100].
	Roll int
	Tier Tier
}
