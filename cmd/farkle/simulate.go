package main

import (
	"context"
	"fmt"
	"time"

	"github.com/felkru/farkle/cmd/farkle/shared"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/agent/greedy"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/match"
	"github.com/felkru/farkle/internal/randutil"
	"github.com/felkru/farkle/internal/scoring"
)

// SimulateCmd plays many bot games in parallel
type SimulateCmd struct {
	Games        int    `short:"n" default:"1000" help:"Number of games"`
	Players      int    `short:"p" default:"2" help:"Greedy bots per game"`
	Workers      int    `short:"w" help:"Parallel workers (defaults to GOMAXPROCS)"`
	Seed         *int64 `help:"Base seed; game i uses seed+i (optional)"`
	WinningScore int    `default:"10000" help:"Score needed to win"`
	Rules        string `default:"doubling" enum:"doubling,fixed-table" help:"Scoring rules"`
	TurnLimit    int    `default:"1000" help:"Abandon a game after this many turns"`
	Debug        bool   `help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx, stop := shared.WithShutdown(context.Background(), logger, "simulation")
	defer stop()

	if c.Players < 2 {
		return fmt.Errorf("need at least 2 players, got %d", c.Players)
	}

	var rules scoring.Rules
	switch variant, err := scoring.ParseVariant(c.Rules); {
	case err != nil:
		return err
	case variant == scoring.FixedTable:
		rules = scoring.FixedTableRules()
	default:
		rules = scoring.DefaultRules()
	}

	seed := int64(0)
	if c.Seed != nil {
		seed = *c.Seed
	} else {
		s, err := randutil.NewSeed()
		if err != nil {
			return err
		}
		seed = s
	}

	seats := make([]game.Seat, c.Players)
	agents := make([]agent.Agent, c.Players)
	bot := greedy.New(logger, greedy.WithThinkTime(0))
	for i := range seats {
		seats[i] = game.Seat{Name: fmt.Sprintf("Greedy %d", i+1), Controller: game.Greedy}
		agents[i] = bot
	}

	logger.Info("Starting simulation", "games", c.Games, "players", c.Players, "seed", seed, "rules", rules.Variant)
	start := time.Now()

	report, err := match.Simulate(ctx, match.SimConfig{
		Games:     c.Games,
		Workers:   c.Workers,
		Seed:      seed,
		Seats:     seats,
		Options:   []game.Option{game.WithWinningScore(c.WinningScore), game.WithRules(rules)},
		TurnLimit: c.TurnLimit,
	}, agents, logger)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	fmt.Printf("Played %d games in %s (%.0f games/sec)\n", report.Games, elapsed.Round(time.Millisecond), float64(report.Games)/elapsed.Seconds())
	fmt.Printf("Average turns per game: %.1f\n", report.AverageTurns())
	if report.Unfinished > 0 {
		fmt.Printf("Unfinished (turn limit): %d\n", report.Unfinished)
	}
	for i, s := range seats {
		fmt.Printf("  %-12s wins %6d  (%.1f%%)\n", s.Name, report.Wins[i], report.WinShare(i)*100)
	}
	return nil
}
