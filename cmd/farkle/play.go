package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felkru/farkle/cmd/farkle/shared"
	"github.com/felkru/farkle/internal/config"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/match"
	"github.com/felkru/farkle/internal/tui"
	"github.com/muesli/termenv"
)

// PlayCmd runs the interactive terminal game
type PlayCmd struct {
	Config   string `short:"c" default:"farkle.hcl" help:"Path to HCL game file (defaults to you against the greedy bot)"`
	Seed     *int64 `help:"Deterministic dice seed (optional)"`
	LogFile  string `default:"farkle.log" help:"Log file path; the terminal belongs to the game"`
	Debug    bool   `help:"Enable debug logging"`
	NoColor  bool   `help:"Disable colors"`
	Spectate string `help:"Also serve a spectator feed on this address (e.g. :8081)"`
}

func (c *PlayCmd) Run() error {
	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := shared.NewLogger(logFile, c.Debug, false)

	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cfg, err := loadConfig(c.Config, c.Seed)
	if err != nil {
		return err
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var observer func(game.Snapshot)
	if c.Spectate != "" {
		hub, err := startSpectators(ctx, c.Spectate, logger)
		if err != nil {
			return err
		}
		observer = hub.Publish
	}

	logger.Info("Starting game", "config", c.Config, "players", len(cfg.Players), "rules", cfg.Game.Rules)

	model := tui.New(tui.Options{
		Seats:       cfg.Seats(),
		Agents:      agents,
		GameOptions: opts,
		NewRoller:   newRoller,
		BustDelay:   cfg.BustDelay(),
		MoveDelay:   cfg.MoveDelay(),
		Observer:    observer,
	}, logger)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
