package game

import (
	"slices"

	"github.com/felkru/farkle/internal/scoring"
)

// Snapshot is a value copy of a game at one moment. It shares no memory with
// the engine that produced it.
type Snapshot struct {
	GameID        string
	Turn          int
	CurrentPlayer int
	Players       []Player
	Dice          [NumDice]Die
	TurnScore     int
	HeldScore     int
	Status        Status
	Message       string
	WinningScore  int
	Rules         scoring.Rules
	// SetAside holds the faces locked earlier this turn.
	SetAside []int
}

// Snapshot returns the current state of the game.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		GameID:        e.id,
		Turn:          e.turn,
		CurrentPlayer: e.current,
		Players:       slices.Clone(e.players),
		Dice:          e.dice,
		TurnScore:     e.turnScore,
		HeldScore:     e.heldScore,
		Status:        e.status,
		Message:       e.message,
		WinningScore:  e.winningScore,
		Rules:         e.rules,
		SetAside:      slices.Clone(e.setAside),
	}
}

// ActivePlayer returns the player whose turn it is.
func (s Snapshot) ActivePlayer() Player {
	return s.Players[s.CurrentPlayer]
}

// PendingScore is what Bank would add right now.
func (s Snapshot) PendingScore() int {
	return s.TurnScore + s.HeldScore
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Players = slices.Clone(s.Players)
	s.SetAside = slices.Clone(s.SetAside)
	return s
}

// DiceIn returns the dice in the given state, ordered by ID.
func (s Snapshot) DiceIn(state DieState) []Die {
	var out []Die
	for _, d := range s.Dice {
		if d.State == state {
			out = append(out, d)
		}
	}
	return out
}
