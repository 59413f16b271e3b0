package dice

import (
	"slices"

	"go.uber.org/zap"
)

// Roll evaluates expr with src.
//
// Precondition: expr comes from Parse; src is non-nil.
// Postcondition: len(result.Dice) is expr.KeepHighest when set, else
// expr.Count.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	if expr.KeepHighest > 0 {
		slices.Sort(rolled)
		slices.Reverse(rolled)
		rolled = rolled[:expr.KeepHighest]
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// Roller rolls with a Source and logs every roll at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Pick returns a uniformly chosen index in [0, n) and logs it with reason.
//
// Precondition: n > 0.
func (r *Roller) Pick(reason string, n int) int {
	if n == 1 {
		return 0
	}
	i := r.src.Intn(n)
	r.logger.Debug("dice pick",
		zap.String("reason", reason),
		zap.Int("options", n),
		zap.Int("picked", i),
	)
	return i
}
