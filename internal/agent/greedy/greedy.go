// Package greedy is the rule-based agent: keep everything that scores, then
// bank.
package greedy

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
)

// DefaultThinkTime is the pause before the agent answers, so people watching
// can follow the game.
const DefaultThinkTime = time.Second

// Explanation accompanies every greedy move.
const Explanation = "I'll take the points and run!"

// Agent keeps every scoring die and banks.
type Agent struct {
	thinkTime time.Duration
	clock     quartz.Clock
	logger    *log.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithThinkTime sets the pause before answering. Zero answers immediately.
func WithThinkTime(d time.Duration) Option {
	return func(a *Agent) { a.thinkTime = d }
}

// WithClock sets the clock used for the think time.
func WithClock(clock quartz.Clock) Option {
	return func(a *Agent) { a.clock = clock }
}

// New creates a greedy agent.
func New(logger *log.Logger, opts ...Option) *Agent {
	a := &Agent{
		thinkTime: DefaultThinkTime,
		clock:     quartz.NewReal(),
		logger:    logger.WithPrefix("greedy-agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Decide implements agent.Agent.
func (a *Agent) Decide(ctx context.Context, snap game.Snapshot, progress agent.ProgressFunc) (game.Move, error) {
	if a.thinkTime > 0 {
		thinking := func() { progress.Report("Thinking...") }
		if err := agent.Sleep(ctx, a.clock, a.thinkTime, thinking); err != nil {
			return game.Move{}, err
		}
	}

	move := Choose(snap)
	a.logger.Debug("Decided", "player", snap.ActivePlayer().Name, "move", move)
	return move, nil
}

// Choose is the greedy strategy without the think time. It keeps every die of
// a set of three or more and every remaining 1 and 5 among the Available dice,
// then banks. When the rules refuse that bank, it rolls on instead.
func Choose(snap game.Snapshot) game.Move {
	keep := Keep(snap.Dice[:])
	move := game.Move{Action: game.ActionBank, Keep: keep, Explanation: Explanation}
	if snap.ValidateMove(keep, game.ActionBank) != nil && snap.ValidateMove(keep, game.ActionRoll) == nil {
		move.Action = game.ActionRoll
		move.Explanation = "Not allowed to bank yet, rolling on."
	}
	return move
}

// Keep returns, ascending, the IDs of the Available dice that score.
func Keep(dice []game.Die) []int {
	var byFace [7][]int
	for _, d := range dice {
		if d.State == game.Available && d.Value >= 1 && d.Value <= 6 {
			byFace[d.Value] = append(byFace[d.Value], d.ID)
		}
	}

	keep := []int{}
	for face := 1; face <= 6; face++ {
		ids := byFace[face]
		if len(ids) >= 3 || face == 1 || face == 5 {
			keep = append(keep, ids...)
		}
	}
	slices.Sort(keep)
	return keep
}
