package match

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// SimConfig describes a batch of headless games.
type SimConfig struct {
	Games     int
	Workers   int // defaults to GOMAXPROCS
	Seed      int64
	Seats     []game.Seat
	Options   []game.Option
	TurnLimit int
}

// SimReport aggregates a batch.
type SimReport struct {
	Games      int
	Wins       []int // by seat
	Unfinished int
	TotalTurns int
}

// WinShare is the fraction of finished games seat i won.
func (r SimReport) WinShare(i int) float64 {
	finished := r.Games - r.Unfinished
	if finished == 0 {
		return 0
	}
	return float64(r.Wins[i]) / float64(finished)
}

// AverageTurns is the mean number of turns per game.
func (r SimReport) AverageTurns() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalTurns) / float64(r.Games)
}

type simResult struct {
	winner int
	turns  int
}

// Simulate plays cfg.Games games in parallel. Game i is rolled with seed
// cfg.Seed+i, so a batch is reproducible. agents are shared by every game and
// must be safe for concurrent use. Delays are not applied.
func Simulate(ctx context.Context, cfg SimConfig, agents []agent.Agent, logger *log.Logger) (SimReport, error) {
	if cfg.Games <= 0 {
		return SimReport{}, fmt.Errorf("games must be positive, got %d", cfg.Games)
	}
	if len(agents) != len(cfg.Seats) {
		return SimReport{}, fmt.Errorf("need %d agents, got %d", len(cfg.Seats), len(agents))
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, cfg.Games)

	quiet := logger.WithPrefix("sim")
	quiet.SetLevel(log.WarnLevel)

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan simResult, workers)

	perWorker := cfg.Games / workers
	remainder := cfg.Games % workers
	next := 0
	for w := 0; w < workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}
		first := next
		next += n

		g.Go(func() error {
			for i := first; i < first+n; i++ {
				engine := game.New(randutil.NewD6(cfg.Seed+int64(i)), cfg.Seats, cfg.Options...)
				runner := NewRunner(engine, agents, quiet, WithTurnLimit(cfg.TurnLimit))

				res, err := runner.Run(ctx)
				if err != nil && !errors.Is(err, ErrTurnLimit) {
					return fmt.Errorf("game %d: %w", i, err)
				}
				select {
				case results <- simResult{winner: res.Winner, turns: res.Turns}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(results)
		_ = g.Wait()
	}()

	report := SimReport{Wins: make([]int, len(cfg.Seats))}
	for r := range results {
		report.Games++
		report.TotalTurns += r.turns
		if r.winner < 0 {
			report.Unfinished++
		} else {
			report.Wins[r.winner]++
		}
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}
