package battle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Controller decides the action of a unit whose turn is open.
type Controller interface {
	Decide(ctx context.Context, b *Battle, u *unit.Unit) Action
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(ctx context.Context, b *Battle, u *unit.Unit) Action

// Decide calls f.
func (f ControllerFunc) Decide(ctx context.Context, b *Battle, u *unit.Unit) Action {
	return f(ctx, b, u)
}

// Result summarises a finished run.
type Result struct {
	Turns  int
	Rounds int
	Over   bool
	// Winner is the winning faction, or ident.None on a draw or when the
	// turn limit was reached.
	Winner ident.ID
}

// Run starts the battle if needed and drives turns with c until the battle
// is over, nobody is left to act, or maxTurns turns have been played. An
// action the controller gets wrong is replaced by waiting.
//
// Precondition: no turn is open; maxTurns > 0.
// Postcondition: Returns ctx.Err() wrapped when ctx is cancelled between
// turns.
func (b *Battle) Run(ctx context.Context, c Controller, maxTurns int) (Result, error) {
	if maxTurns <= 0 {
		panic("battle: Run: maxTurns must be positive")
	}
	if !b.started {
		b.Start()
	}
	played := 0
	for played < maxTurns {
		if err := ctx.Err(); err != nil {
			return b.result(), fmt.Errorf("battle %s interrupted at turn %d: %w", b.ID, b.turn, err)
		}
		u, ok := b.NextTurn()
		if !ok {
			break
		}
		a := c.Decide(ctx, b, u)
		if !b.Perform(a) {
			b.logger.Debug("illegal action replaced by wait",
				zap.Uint16("unit", uint16(u.ID)),
				zap.Stringer("action", a.Kind),
			)
			b.Wait()
		}
		b.EndTurn()
		played++
	}
	res := b.result()
	b.logger.Info("battle finished",
		zap.Int("turns", res.Turns),
		zap.Int("rounds", res.Rounds),
		zap.Bool("over", res.Over),
		zap.Uint16("winner", uint16(res.Winner)),
	)
	return res, nil
}

func (b *Battle) result() Result {
	res := Result{Turns: b.turn, Rounds: b.round, Over: b.Over(), Winner: ident.None}
	if w, ok := b.Winner(); ok {
		res.Winner = w
	}
	return res
}
