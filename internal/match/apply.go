// Package match drives games headlessly: it asks agents for moves, applies
// them to the engine, and clears busted turns.
package match

import (
	"errors"

	"github.com/felkru/farkle/internal/game"
)

// ErrStaleMove means a move was decided for a game that has since been
// replaced.
var ErrStaleMove = errors.New("move belongs to a different game")

// Engine is the part of *game.Engine that moves are applied through.
type Engine interface {
	ID() string
	Snapshot() game.Snapshot
	ValidateMove(keep []int, action game.Action) error
	Hold(ids []int)
	Roll()
	Bank()
}

// ApplyMove validates m against e and applies it: exactly the listed dice
// are Held, then the action runs. gameID is the ID of the game the move was
// decided for.
func ApplyMove(e Engine, gameID string, m game.Move) error {
	if gameID != e.ID() {
		return ErrStaleMove
	}
	if err := e.ValidateMove(m.Keep, m.Action); err != nil {
		return err
	}

	e.Hold(m.Keep)

	switch m.Action {
	case game.ActionRoll:
		e.Roll()
	case game.ActionBank:
		e.Bank()
	}
	return nil
}
