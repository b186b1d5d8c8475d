package damage

import "github.com/cory-johannsen/rqgcombat/internal/game/dice"

// Evaluator evaluates a parsed expression, sampling or maximizing.
// *dice.Roller satisfies it.
type Evaluator interface {
	Evaluate(expr dice.Expression, maximize bool) dice.RollResult
}

// SourceEvaluator evaluates expressions directly against a dice.Source.
type SourceEvaluator struct {
	Src dice.Source
}

// Evaluate implements Evaluator.
func (s SourceEvaluator) Evaluate(expr dice.Expression, maximize bool) dice.RollResult {
	return dice.Evaluate(expr, s.Src, maximize)
}

// ResolvedTerm is a Term together with its roll and signed value.
type ResolvedTerm struct {
	Term
	Roll  dice.RollResult
	Value int
}

// Resolve evaluates every term once, in order, and sums the signed values.
//
// Precondition: ev must be non-nil.
// Postcondition: len(resolved) == len(terms) with labels in the same order;
// total == sum of resolved[i].Value. ForceMax terms are maximized even when
// maximize is false.
func Resolve(terms []Term, maximize bool, ev Evaluator) (int, []ResolvedTerm) {
	total := 0
	resolved := make([]ResolvedTerm, 0, len(terms))
	for _, t := range terms {
		roll := ev.Evaluate(t.Expr, maximize || t.ForceMax)
		sign := t.Sign
		if sign == 0 {
			sign = 1
		}
		v := sign * roll.Total()
		if t.Halve {
			v = ceilHalf(v)
		}
		total += v
		resolved = append(resolved, ResolvedTerm{Term: t, Roll: roll, Value: v})
	}
	return total, resolved
}
