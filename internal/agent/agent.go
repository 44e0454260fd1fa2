// Package agent defines how automated players choose moves.
//
// Every agent implements the same contract: it is handed a game.Snapshot of
// the position and returns a game.Move. Agents never touch the engine; the
// orchestrator validates the move and applies it. Variants live in
// subpackages (greedy, hosted, remote) and are chosen by configuration.
package agent

import (
	"context"

	"github.com/felkru/farkle/internal/game"
)

// ProgressFunc receives human-readable status lines while an agent works,
// such as "Retrying in 2s". It may be nil.
type ProgressFunc func(message string)

// Report calls p if it is set.
func (p ProgressFunc) Report(message string) {
	if p != nil {
		p(message)
	}
}

// Agent decides moves for one seat. Decide must return promptly once ctx is
// cancelled.
type Agent interface {
	Decide(ctx context.Context, snap game.Snapshot, progress ProgressFunc) (game.Move, error)
}

// Func adapts a function to Agent.
type Func func(ctx context.Context, snap game.Snapshot, progress ProgressFunc) (game.Move, error)

func (f Func) Decide(ctx context.Context, snap game.Snapshot, progress ProgressFunc) (game.Move, error) {
	return f(ctx, snap, progress)
}
