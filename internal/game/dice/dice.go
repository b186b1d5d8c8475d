// Package dice provides the randomness abstraction, dice-expression parsing,
// and roll-result types used by the combat resolution engine.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice expression evaluation.
//
// Dice values from subtracted terms are recorded as negative numbers so that
// the postcondition below holds for every expression.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier, signed
	Modifier   int    // sum of flat constants (may be negative)
	Maximized  bool   // true when every die was forced to its highest face
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Maximized results carry a trailing " (max)".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	diceStr := fmt.Sprintf("%v", r.Dice)
	modStr := fmt.Sprintf("%+d", r.Modifier)
	s := fmt.Sprintf("%s → %s %s = %d", r.Expression, diceStr, modStr, r.Total())
	if r.Maximized {
		s += " (max)"
	}
	return s
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
