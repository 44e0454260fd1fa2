package agent

import (
	"fmt"

	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/scoring"
)

// GameState is the JSON body sent to remote agents and embedded in hosted
// model prompts.
type GameState struct {
	Message          string        `json:"message"`
	Status           string        `json:"status"`
	TurnScore        int           `json:"turnScore"`
	CurrentKeepScore int           `json:"currentKeepScore"`
	LastError        string        `json:"lastError,omitempty"`
	Dice             []DieState    `json:"dice"`
	Players          []PlayerState `json:"players"`
}

// DieState is one die on the wire. State is rolled, kept or banked.
type DieState struct {
	ID    int    `json:"id"`
	Value int    `json:"value"`
	State string `json:"state"`
}

// PlayerState is one player on the wire.
type PlayerState struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsMyTurn bool   `json:"isMyTurn"`
}

// NewGameState converts a snapshot to its wire form. lastError carries the
// reason a previous answer was refused, if any.
func NewGameState(snap game.Snapshot, lastError string) GameState {
	gs := GameState{
		Message:          snap.Message,
		Status:           snap.Status.WireName(),
		TurnScore:        snap.TurnScore,
		CurrentKeepScore: snap.HeldScore,
		LastError:        lastError,
		Dice:             make([]DieState, 0, game.NumDice),
		Players:          make([]PlayerState, 0, len(snap.Players)),
	}
	for _, d := range snap.Dice {
		gs.Dice = append(gs.Dice, DieState{ID: d.ID, Value: d.Value, State: d.State.WireName()})
	}
	for _, p := range snap.Players {
		gs.Players = append(gs.Players, PlayerState{
			Name:     p.Name,
			Score:    p.Score,
			IsMyTurn: p.Index == snap.CurrentPlayer,
		})
	}
	return gs
}

// MoveResponse is the JSON answer from an agent.
type MoveResponse struct {
	Action      string `json:"action"`
	KeepDiceIDs []int  `json:"keepDiceIds"`
	Explanation string `json:"explanation,omitempty"`
}

// Move converts the response into an engine move.
func (r MoveResponse) Move() (game.Move, error) {
	action, err := game.ParseAction(r.Action)
	if err != nil {
		return game.Move{}, err
	}
	keep := r.KeepDiceIDs
	if keep == nil {
		keep = []int{}
	}
	return game.Move{Action: action, Keep: keep, Explanation: r.Explanation}, nil
}

// NewMoveResponse is the wire form of m.
func NewMoveResponse(m game.Move) MoveResponse {
	keep := m.Keep
	if keep == nil {
		keep = []int{}
	}
	return MoveResponse{Action: m.Action.String(), KeepDiceIDs: keep, Explanation: m.Explanation}
}

var (
	wireDieStates = map[string]game.DieState{
		"rolled": game.Available,
		"kept":   game.Held,
		"banked": game.Locked,
	}
	wireStatuses = map[string]game.Status{
		"rolling": game.Active,
		"farkle":  game.Busted,
		"win":     game.Won,
	}
)

// Snapshot rebuilds a snapshot from the wire form, for agent servers that
// want to reuse the engine's validator. The wire form does not carry the
// rules, so the snapshot uses the default ones.
func (gs GameState) Snapshot() (game.Snapshot, error) {
	status, ok := wireStatuses[gs.Status]
	if !ok {
		return game.Snapshot{}, fmt.Errorf("unknown status %q", gs.Status)
	}
	if len(gs.Dice) != game.NumDice {
		return game.Snapshot{}, fmt.Errorf("expected %d dice, got %d", game.NumDice, len(gs.Dice))
	}

	snap := game.Snapshot{
		TurnScore:     gs.TurnScore,
		HeldScore:     gs.CurrentKeepScore,
		Status:        status,
		Message:       gs.Message,
		WinningScore:  game.DefaultWinningScore,
		Rules:         scoring.DefaultRules(),
		CurrentPlayer: -1,
	}
	for _, d := range gs.Dice {
		state, ok := wireDieStates[d.State]
		if !ok {
			return game.Snapshot{}, fmt.Errorf("die %d: unknown state %q", d.ID, d.State)
		}
		if d.ID < 0 || d.ID >= game.NumDice {
			return game.Snapshot{}, fmt.Errorf("die id %d out of range", d.ID)
		}
		snap.Dice[d.ID] = game.Die{ID: d.ID, Value: d.Value, State: state}
	}
	for i, p := range gs.Players {
		snap.Players = append(snap.Players, game.Player{Index: i, Name: p.Name, Score: p.Score, Controller: game.Remote})
		if p.IsMyTurn {
			snap.CurrentPlayer = i
		}
	}
	if snap.CurrentPlayer < 0 {
		return game.Snapshot{}, fmt.Errorf("no player has isMyTurn set")
	}
	return snap, nil
}
