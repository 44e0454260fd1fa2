package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
)

// ErrTurnLimit is returned when a game runs past the configured turn limit.
var ErrTurnLimit = errors.New("turn limit reached")

// TurnError is an agent failure that stopped the game. The turn it happened
// on was not advanced.
type TurnError struct {
	Player game.Player
	Turn   int
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d (%s): %v", e.Turn, e.Player.Name, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Result summarises a finished or stopped game.
type Result struct {
	GameID string
	Winner int // -1 when nobody won
	Turns  int
	Final  game.Snapshot
}

// Runner plays one game to completion with agents in every seat.
type Runner struct {
	engine    *game.Engine
	agents    []agent.Agent
	clock     quartz.Clock
	bustDelay time.Duration
	moveDelay time.Duration
	turnLimit int
	observers []func(game.Snapshot)
	progress  func(game.Player, string)
	logger    *log.Logger

	waiting func(time.Duration) // called once a delay timer is armed
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock used for the bust and move delays.
func WithClock(clock quartz.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// WithBustDelay sets how long a busted roll is shown before the turn passes.
func WithBustDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.bustDelay = d }
}

// WithMoveDelay sets a pause after every applied move.
func WithMoveDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.moveDelay = d }
}

// WithTurnLimit stops the game with ErrTurnLimit after n turns. Zero means no
// limit.
func WithTurnLimit(n int) RunnerOption {
	return func(r *Runner) { r.turnLimit = n }
}

// WithObserver registers fn to receive a snapshot after every state change.
func WithObserver(fn func(game.Snapshot)) RunnerOption {
	return func(r *Runner) { r.observers = append(r.observers, fn) }
}

// WithProgress forwards agent progress messages.
func WithProgress(fn func(game.Player, string)) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a runner. agents is indexed by seat and must have an agent
// for every player.
func NewRunner(engine *game.Engine, agents []agent.Agent, logger *log.Logger, opts ...RunnerOption) *Runner {
	if engine == nil {
		panic("engine is required")
	}
	r := &Runner{
		engine: engine,
		agents: agents,
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("match").With("game", engine.ID()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays until someone wins, ctx is cancelled, an agent fails, or the
// turn limit is reached.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	snap := r.engine.Snapshot()
	r.notify(snap)
	r.logger.Info("Game started", "players", len(snap.Players), "winning_score", snap.WinningScore)

	for {
		snap = r.engine.Snapshot()
		if snap.Status == game.Won {
			p := snap.ActivePlayer()
			r.logger.Info("Game won", "player", p.Name, "score", p.Score, "turns", snap.Turn)
			return r.result(snap), nil
		}
		if r.turnLimit > 0 && snap.Turn > r.turnLimit {
			return r.result(snap), ErrTurnLimit
		}

		if snap.Status == game.Busted {
			r.logger.Debug("Busted", "player", snap.ActivePlayer().Name, "dice", snap.Dice)
			if err := r.wait(ctx, r.bustDelay); err != nil {
				return r.result(snap), err
			}
			r.engine.PassTurn()
			r.notify(r.engine.Snapshot())
			continue
		}

		if err := r.step(ctx, snap); err != nil {
			return r.result(r.engine.Snapshot()), err
		}
		r.notify(r.engine.Snapshot())
		if err := r.wait(ctx, r.moveDelay); err != nil {
			return r.result(r.engine.Snapshot()), err
		}
	}
}

func (r *Runner) step(ctx context.Context, snap game.Snapshot) error {
	player := snap.ActivePlayer()
	if player.Index >= len(r.agents) || r.agents[player.Index] == nil {
		return &TurnError{Player: player, Turn: snap.Turn, Err: fmt.Errorf("no agent for seat %d", player.Index)}
	}

	progress := func(msg string) {
		if r.progress != nil {
			r.progress(player, msg)
		}
	}
	move, err := r.agents[player.Index].Decide(ctx, snap, progress)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("Agent failed", "player", player.Name, "error", err)
		return &TurnError{Player: player, Turn: snap.Turn, Err: err}
	}

	if err := ApplyMove(r.engine, snap.GameID, move); err != nil {
		r.logger.Warn("Rejected move", "player", player.Name, "move", move, "error", err)
		return &TurnError{
			Player: player,
			Turn:   snap.Turn,
			Err:    &agent.Error{Agent: string(player.Controller), Kind: agent.KindLegality, Attempts: 1, Err: err},
		}
	}

	r.logger.Debug("Applied move", "player", player.Name, "move", move, "explanation", move.Explanation)
	return nil
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	var armed func()
	if r.waiting != nil {
		armed = func() { r.waiting(d) }
	}
	return agent.Sleep(ctx, r.clock, d, armed)
}

func (r *Runner) notify(s game.Snapshot) {
	for _, fn := range r.observers {
		fn(s.Clone())
	}
}

func (r *Runner) result(s game.Snapshot) Result {
	res := Result{GameID: s.GameID, Winner: -1, Turns: s.Turn, Final: s}
	if s.Status == game.Won {
		res.Winner = s.CurrentPlayer
	}
	return res
}
