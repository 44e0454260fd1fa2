package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felkru/farkle/internal/scoring"
)

// ErrIllegalMove is matched by every *IllegalMoveError.
var ErrIllegalMove = errors.New("illegal move")

// IllegalMoveError explains why a move was refused.
type IllegalMoveError struct {
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return "illegal move: " + e.Reason
}

func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

func illegal(format string, args ...any) error {
	return &IllegalMoveError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateMove reports whether keeping the given dice and then performing
// action would be accepted. It does not change the game.
func (e *Engine) ValidateMove(keep []int, action Action) error {
	return e.Snapshot().ValidateMove(keep, action)
}

// ValidateMove checks a move against the snapshot. Dice already Held may be
// listed in keep; they stay Held.
func (s Snapshot) ValidateMove(keep []int, action Action) error {
	switch s.Status {
	case Won:
		return illegal("the game is over")
	case Busted:
		return illegal("the turn has busted; only passing is allowed")
	}
	if action != ActionRoll && action != ActionBank {
		return illegal("unknown action %s", action)
	}

	held := make([]bool, NumDice)
	for _, d := range s.Dice {
		held[d.ID] = d.State == Held
	}
	for _, id := range keep {
		if id < 0 || id >= NumDice {
			return illegal("die %d does not exist", id)
		}
		if s.Dice[id].State == Locked {
			return illegal("die %d is already banked", id)
		}
		held[id] = true
	}

	var ids, faces []int
	for id, h := range held {
		if h {
			ids = append(ids, id)
			faces = append(faces, s.Dice[id].Value)
		}
	}

	res := s.Rules.Evaluate(faces)
	for i, id := range ids {
		if !res.Contributes(i) {
			return illegal("die %d (a %d) does not score", id, faces[i])
		}
	}

	switch action {
	case ActionRoll:
		available := NumDice - len(ids) - len(s.DiceIn(Locked))
		if res.Score == 0 && available > 0 {
			return illegal("must keep at least one scoring die before rolling")
		}
	case ActionBank:
		if s.TurnScore+res.Score <= 0 {
			return illegal("nothing to bank")
		}
		if s.Rules.RequireProof && !scoring.ProofSatisfied(slices.Concat(s.SetAside, faces)) {
			return illegal("a set of three or more must be proven with a 1 or 5 before banking")
		}
	}
	return nil
}
