package dice

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == total dice count across all dice terms;
// result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) RollResult {
	return evaluate(expr, func(sides int) int { return src.Intn(sides) + 1 })
}

// Maximize evaluates an Expression with every die showing its highest face.
// No randomness is consumed.
//
// Postcondition: result.Maximized is true.
func Maximize(expr Expression) RollResult {
	r := evaluate(expr, func(sides int) int { return sides })
	r.Maximized = true
	return r
}

// Evaluate rolls expr with src, or maximizes it when maximize is true.
//
// Precondition: src must be non-nil unless maximize is true.
func Evaluate(expr Expression, src Source, maximize bool) RollResult {
	if maximize {
		return Maximize(expr)
	}
	return Roll(expr, src)
}

func evaluate(expr Expression, face func(sides int) int) RollResult {
	var rolled []int
	modifier := 0
	for _, t := range expr.Terms {
		sign := 1
		if t.Negative {
			sign = -1
		}
		if !t.IsDice() {
			modifier += sign * t.Constant
			continue
		}
		for i := 0; i < t.Count; i++ {
			rolled = append(rolled, sign*face(t.Sides))
		}
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       rolled,
		Modifier:   modifier,
	}
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}
