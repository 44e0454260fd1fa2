package game

import (
	"fmt"
	"strings"
)

// NumDice is the number of dice in play.
const NumDice = 6

// DefaultWinningScore is the banked total that ends the game.
const DefaultWinningScore = 10000

// DieState is where a die sits within the current turn.
type DieState int

const (
	// Available dice will be rerolled by the next Roll.
	Available DieState = iota
	// Held dice are set aside this roll and can still be released.
	Held
	// Locked dice were set aside on an earlier roll of this turn.
	Locked
)

func (s DieState) String() string {
	switch s {
	case Available:
		return "available"
	case Held:
		return "held"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("diestate(%d)", int(s))
	}
}

// WireName is the name used by the remote agent protocol.
func (s DieState) WireName() string {
	switch s {
	case Held:
		return "kept"
	case Locked:
		return "banked"
	default:
		return "rolled"
	}
}

// Die is one of the six dice. ID is stable for the life of the game.
type Die struct {
	ID    int
	Value int
	State DieState
}

// Controller says who decides for a player.
type Controller string

const (
	Human  Controller = "human"
	Greedy Controller = "greedy"
	Hosted Controller = "hosted"
	Remote Controller = "remote"
)

// IsAgent reports whether moves for this controller come from an agent rather
// than a person at the keyboard.
func (c Controller) IsAgent() bool {
	return c != Human
}

// ParseController parses a controller name as written in config files.
func ParseController(s string) (Controller, error) {
	switch c := Controller(strings.ToLower(strings.TrimSpace(s))); c {
	case Human, Greedy, Hosted, Remote:
		return c, nil
	case "":
		return Human, nil
	default:
		return "", fmt.Errorf("unknown controller %q", s)
	}
}

// Seat describes a player before the game starts.
type Seat struct {
	Name       string
	Controller Controller
}

// Player is a seat at the table together with its banked score. Score only
// changes through Bank and never decreases.
type Player struct {
	Index      int
	Name       string
	Controller Controller
	Score      int
}

// Status is the state of the current turn.
type Status int

const (
	// Active means the current player may keep dice, roll or bank.
	Active Status = iota
	// Busted means the last roll scored nothing. Only PassTurn is accepted.
	Busted
	// Won is terminal.
	Won
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Busted:
		return "busted"
	case Won:
		return "won"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// WireName is the name used by the remote agent protocol.
func (s Status) WireName() string {
	switch s {
	case Busted:
		return "farkle"
	case Won:
		return "win"
	default:
		return "rolling"
	}
}

// Action is what a move does after its dice are kept.
type Action int

const (
	ActionRoll Action = iota
	ActionBank
)

func (a Action) String() string {
	switch a {
	case ActionRoll:
		return "ROLL"
	case ActionBank:
		return "BANK"
	default:
		return fmt.Sprintf("ACTION(%d)", int(a))
	}
}

// ParseAction parses ROLL or BANK, ignoring case.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ROLL":
		return ActionRoll, nil
	case "BANK":
		return ActionBank, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// Move is an agent's decision: move the Keep dice to Held, then perform
// Action.
type Move struct {
	Action      Action
	Keep        []int
	Explanation string
}

func (m Move) String() string {
	return fmt.Sprintf("%s keep=%v", m.Action, m.Keep)
}
