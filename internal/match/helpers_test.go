package match

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/felkru/farkle/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// script is a Roller that hands out faces in order and falls back to 1s
// once the script runs out.
type script struct {
	mu    sync.Mutex
	faces []int
}

func (s *script) RollDie() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faces) == 0 {
		return 1
	}
	f := s.faces[0]
	s.faces = s.faces[1:]
	return f
}

func newScriptedEngine(t *testing.T, faces []int, opts ...game.Option) *game.Engine {
	t.Helper()
	seats := []game.Seat{
		{Name: "Bot A", Controller: game.Greedy},
		{Name: "Bot B", Controller: game.Greedy},
	}
	return game.New(&script{faces: faces}, seats, opts...)
}
