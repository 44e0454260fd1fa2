package game

import "testing"

// scriptedRoller returns faces in order and fails the test when it runs dry.
type scriptedRoller struct {
	t     *testing.T
	faces []int
}

func (r *scriptedRoller) RollDie() int {
	r.t.Helper()
	if len(r.faces) == 0 {
		r.t.Fatal("scripted roller exhausted")
	}
	f := r.faces[0]
	r.faces = r.faces[1:]
	return f
}

func (r *scriptedRoller) push(faces ...int) {
	r.faces = append(r.faces, faces...)
}

func twoSeats() []Seat {
	return []Seat{
		{Name: "Alice", Controller: Human},
		{Name: "Bob", Controller: Greedy},
	}
}

// newTestEngine starts a game whose opening roll is the given faces.
func newTestEngine(t *testing.T, opening []int, opts ...Option) (*Engine, *scriptedRoller) {
	t.Helper()
	r := &scriptedRoller{t: t}
	r.push(opening...)
	opts = append([]Option{WithID("01testgame0000000000000000")}, opts...)
	return New(r, twoSeats(), opts...), r
}

func faceValues(s Snapshot) []int {
	out := make([]int, 0, NumDice)
	for _, d := range s.Dice {
		out = append(out, d.Value)
	}
	return out
}

func statesOf(s Snapshot) []DieState {
	out := make([]DieState, 0, NumDice)
	for _, d := range s.Dice {
		out = append(out, d.State)
	}
	return out
}
