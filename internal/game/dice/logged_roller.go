package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All evaluations are logged at debug level with expression, dice values,
// modifier, total, and whether the result was maximized.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness provider.
func (r *Roller) Source() Source { return r.src }

// Evaluate rolls or maximizes expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Evaluate(expr Expression, maximize bool) RollResult {
	result := Evaluate(expr, r.src, maximize)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
		zap.Bool("maximized", result.Maximized),
	)
	return result
}

// Roll evaluates expr randomly and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	return r.Evaluate(expr, false)
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
