package game

import (
	"fmt"

	"github.com/felkru/farkle/internal/scoring"
)

// Roller produces die faces in 1..6.
type Roller interface {
	RollDie() int
}

// RollerFunc adapts a function to Roller.
type RollerFunc func() int

func (f RollerFunc) RollDie() int { return f() }

// Engine is the authoritative state of one game.
type Engine struct {
	id           string
	rules        scoring.Rules
	winningScore int
	roller       Roller

	players []Player
	dice    [NumDice]Die
	current int
	turn    int

	turnScore  int
	heldScore  int
	instantWin bool // set aside an instant-win hand this turn
	heldWin    bool // Held dice form an instant-win hand
	setAside   []int
	status     Status
	message    string
}

// ID returns the game ID.
func (e *Engine) ID() string { return e.id }

// Status returns the state of the current turn.
func (e *Engine) Status() Status { return e.status }

// CurrentPlayer returns the index of the player whose turn it is. Once the
// game is Won it is the winner.
func (e *Engine) CurrentPlayer() int { return e.current }

// Rules returns the scoring rules in force.
func (e *Engine) Rules() scoring.Rules { return e.rules }

// Roll sets the Held dice aside and rerolls the rest. It is ignored unless the
// turn is Active and either something scoring is Held or no dice are left to
// roll.
func (e *Engine) Roll() {
	if e.status != Active {
		return
	}
	if e.heldScore == 0 && e.count(Available) > 0 {
		return
	}
	e.roll()
}

// roll commits Held dice, handles the hot hand and rerolls. A roll that scores
// nothing busts the turn.
func (e *Engine) roll() {
	e.commitHeld()

	hot := false
	if e.count(Available) == 0 {
		e.resetDice()
		hot = e.turnScore > 0
	}

	var faces []int
	for i := range e.dice {
		if e.dice[i].State != Available {
			continue
		}
		e.dice[i].Value = e.roller.RollDie()
		faces = append(faces, e.dice[i].Value)
	}

	name := e.players[e.current].Name
	if !e.rules.HasScore(faces) {
		e.status = Busted
		e.message = fmt.Sprintf("Farkle! %s loses %d points.", name, e.turnScore)
		e.turnScore = 0
		e.heldScore = 0
		e.instantWin = false
		return
	}

	switch {
	case hot:
		e.message = "Hot hand! Rolling all 6 dice."
	default:
		e.message = "Select dice to keep."
	}
}

func (e *Engine) commitHeld() {
	for i := range e.dice {
		if e.dice[i].State == Held {
			e.dice[i].State = Locked
			e.setAside = append(e.setAside, e.dice[i].Value)
		}
	}
	e.turnScore += e.heldScore
	e.instantWin = e.instantWin || e.heldWin
	e.heldScore = 0
	e.heldWin = false
}

// ToggleKeep moves a die between Available and Held.
//
// Releasing a Held die releases every Held die showing the same face. Keeping
// an Available die that belongs to a set of three or more selects the clicked
// die and its lowest-ID siblings until three are Held; beyond three, dice of
// that face toggle one at a time. Otherwise only 1s and 5s can be kept alone.
func (e *Engine) ToggleKeep(id int) {
	if e.status != Active || id < 0 || id >= NumDice {
		return
	}

	d := &e.dice[id]
	switch d.State {
	case Locked:
		return
	case Held:
		for i := range e.dice {
			if e.dice[i].State == Held && e.dice[i].Value == d.Value {
				e.dice[i].State = Available
			}
		}
	case Available:
		held, avail := e.countFace(d.Value)
		switch {
		case held+avail >= 3:
			d.State = Held
			for i := range e.dice {
				if held+1 >= 3 {
					break
				}
				if i != id && e.dice[i].State == Available && e.dice[i].Value == d.Value {
					e.dice[i].State = Held
					held++
				}
			}
		case d.Value == 1 || d.Value == 5:
			d.State = Held
		default:
			return
		}
	}

	e.recomputeHeld()
}

// Hold marks exactly the listed Available dice Held, without the sibling
// auto-select of ToggleKeep. Unknown, Locked and already Held dice are
// skipped. Callers validate the keep list first.
func (e *Engine) Hold(ids []int) {
	if e.status != Active {
		return
	}
	for _, id := range ids {
		if id >= 0 && id < NumDice && e.dice[id].State == Available {
			e.dice[id].State = Held
		}
	}
	e.recomputeHeld()
}

func (e *Engine) recomputeHeld() {
	res := e.rules.Evaluate(e.faces(Held))
	e.heldScore = res.Score
	e.heldWin = res.InstantWin
}

// Bank adds the turn's points to the current player's score. The player wins
// on reaching the winning score or with an instant-win hand; otherwise the
// turn passes.
func (e *Engine) Bank() {
	if e.status != Active {
		return
	}
	if e.turnScore+e.heldScore <= 0 {
		return
	}
	if e.rules.RequireProof && !scoring.ProofSatisfied(e.keptFaces()) {
		return
	}

	e.commitHeld()
	p := &e.players[e.current]
	p.Score += e.turnScore

	if p.Score >= e.winningScore || e.instantWin {
		e.status = Won
		e.message = p.Name + " wins!"
		return
	}

	banked := e.turnScore
	e.passTurn()
	e.message = fmt.Sprintf("%s banked %d. %s", p.Name, banked, e.message)
}

// PassTurn ends the current turn without scoring and rolls for the next
// player. It is how a Busted turn is cleared.
func (e *Engine) PassTurn() {
	if e.status == Won {
		return
	}
	e.passTurn()
}

func (e *Engine) passTurn() {
	e.turnScore = 0
	e.heldScore = 0
	e.instantWin = false
	e.heldWin = false
	e.setAside = nil
	e.status = Active
	e.current = (e.current + 1) % len(e.players)
	e.turn++
	e.resetDice()
	e.roll()
	if e.status == Active {
		e.message = e.players[e.current].Name + "'s turn."
	}
}

func (e *Engine) resetDice() {
	for i := range e.dice {
		e.dice[i] = Die{ID: i, Value: e.dice[i].Value, State: Available}
	}
}

func (e *Engine) count(state DieState) int {
	n := 0
	for _, d := range e.dice {
		if d.State == state {
			n++
		}
	}
	return n
}

func (e *Engine) countFace(face int) (held, avail int) {
	for _, d := range e.dice {
		if d.Value != face {
			continue
		}
		switch d.State {
		case Held:
			held++
		case Available:
			avail++
		}
	}
	return held, avail
}

func (e *Engine) faces(state DieState) []int {
	var out []int
	for _, d := range e.dice {
		if d.State == state {
			out = append(out, d.Value)
		}
	}
	return out
}

// keptFaces is every face set aside this turn, including the Held dice.
func (e *Engine) keptFaces() []int {
	return append(append([]int(nil), e.setAside...), e.faces(Held)...)
}
