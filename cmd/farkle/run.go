package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/felkru/farkle/cmd/farkle/shared"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/config"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/match"
)

// RunCmd plays one game between agents and prints the result
type RunCmd struct {
	Config   string `short:"c" default:"farkle.hcl" help:"Path to HCL game file; every player needs a bot controller"`
	Seed     *int64 `help:"Deterministic dice seed (optional)"`
	Debug    bool   `help:"Enable debug logging"`
	JSON     bool   `name:"json" help:"Log as JSON"`
	Spectate string `help:"Serve a spectator feed on this address (e.g. :8081)"`
}

func (c *RunCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.JSON {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	cfg, err := loadConfig(c.Config, c.Seed)
	if err != nil {
		return err
	}
	for _, p := range cfg.Players {
		if ctrl, _ := game.ParseController(p.Controller); !ctrl.IsAgent() {
			return fmt.Errorf("player %s is human; use farkle play", p.Name)
		}
	}
	opts, err := cfg.GameOptions()
	if err != nil {
		return err
	}
	modelEnv, err := config.LoadModelEnv()
	if err != nil {
		return err
	}
	agents, err := match.BuildAgents(cfg, match.Deps{Logger: logger, Model: modelEnv})
	if err != nil {
		return err
	}
	newRoller, err := rollers(cfg.Game.Seed, logger)
	if err != nil {
		return err
	}

	ctx, cancel := shared.WithShutdown(context.Background(), logger, "match")
	defer cancel()

	engine := game.New(newRoller(), cfg.Seats(), opts...)
	runnerOpts := []match.RunnerOption{
		match.WithBustDelay(cfg.BustDelay()),
		match.WithMoveDelay(cfg.MoveDelay()),
		match.WithTurnLimit(cfg.Game.TurnLimit),
		match.WithObserver(func(s game.Snapshot) {
			logger.Debug("Turn state", "turn", s.Turn, "player", s.ActivePlayer().Name, "status", s.Status, "message", s.Message)
		}),
		match.WithProgress(func(p game.Player, msg string) {
			logger.Info(msg, "player", p.Name)
		}),
	}
	if c.Spectate != "" {
		hub, err := startSpectators(ctx, c.Spectate, logger)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, match.WithObserver(hub.Publish))
	}

	logger.Info("Starting game", "game_id", engine.ID(), "players", len(cfg.Players), "rules", cfg.Game.Rules)
	res, err := match.NewRunner(engine, agents, logger, runnerOpts...).Run(ctx)

	var turnErr *match.TurnError
	switch {
	case errors.As(err, &turnErr):
		logger.Error("Game stopped", "player", turnErr.Player.Name, "turn", turnErr.Turn, "kind", agent.KindOf(err), "error", turnErr.Err)
		return err
	case err != nil:
		return err
	}

	fmt.Printf("Game %s finished after %d turns\n", res.GameID, res.Turns)
	for _, p := range res.Final.Players {
		marker := " "
		if p.Index == res.Winner {
			marker = "*"
		}
		fmt.Printf("%s %-20s %6d\n", marker, p.Name, p.Score)
	}
	return nil
}
