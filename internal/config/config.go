// Package config loads game configuration from HCL files and model
// credentials from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/scoring"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const (
	DefaultBustDelay = 4 * time.Second
	DefaultThinkTime = time.Second
)

// Config is a complete game setup.
type Config struct {
	Game    GameSettings
	Players []PlayerConfig
}

// GameSettings are table-wide rules and pacing.
type GameSettings struct {
	WinningScore   int    `hcl:"winning_score,optional"`
	Rules          string `hcl:"rules,optional"`
	InstantWinOnes *int   `hcl:"instant_win_ones,optional"`
	RequireProof   *bool  `hcl:"require_proof,optional"`
	BustDelay      string `hcl:"bust_delay,optional"`
	MoveDelay      string `hcl:"move_delay,optional"`
	Seed           int64  `hcl:"seed,optional"`
	TurnLimit      int    `hcl:"turn_limit,optional"`
}

// PlayerConfig is one seat. Fields that do not apply to the controller are
// ignored.
type PlayerConfig struct {
	Name            string `hcl:"name,label"`
	Controller      string `hcl:"controller,optional"`
	Endpoint        string `hcl:"endpoint,optional"`
	Model           string `hcl:"model,optional"`
	ThinkTime       string `hcl:"think_time,optional"`
	Timeout         string `hcl:"timeout,optional"`
	MaxRetries      *int   `hcl:"max_retries,optional"`
	BaseDelay       string `hcl:"base_delay,optional"`
	MaxDelay        string `hcl:"max_delay,optional"`
	LegalityRetries *int   `hcl:"legality_retries,optional"`
}

type fileConfig struct {
	Game    *GameSettings  `hcl:"game,block"`
	Players []PlayerConfig `hcl:"player,block"`
}

// Default is a human against the greedy bot.
func Default() *Config {
	cfg := &Config{
		Players: []PlayerConfig{
			{Name: "Player 1", Controller: string(game.Human)},
			{Name: "Greedy Bot", Controller: string(game.Greedy)},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads an HCL game file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse reads HCL source held in memory. filename is used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := &Config{Players: fc.Players}
	if fc.Game != nil {
		cfg.Game = *fc.Game
	}
	if len(cfg.Players) == 0 {
		cfg.Players = Default().Players
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Game.WinningScore == 0 {
		c.Game.WinningScore = game.DefaultWinningScore
	}
	if c.Game.Rules == "" {
		c.Game.Rules = scoring.Doubling.String()
	}
	if c.Game.BustDelay == "" {
		c.Game.BustDelay = DefaultBustDelay.String()
	}
	if c.Game.MoveDelay == "" {
		c.Game.MoveDelay = "0s"
	}
	for i := range c.Players {
		p := &c.Players[i]
		if p.Controller == "" {
			p.Controller = string(game.Human)
		}
		if p.ThinkTime == "" {
			p.ThinkTime = DefaultThinkTime.String()
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Game.WinningScore <= 0 {
		return fmt.Errorf("winning score must be positive, got %d", c.Game.WinningScore)
	}
	if _, err := c.ScoringRules(); err != nil {
		return err
	}
	for name, v := range map[string]string{"bust_delay": c.Game.BustDelay, "move_delay": c.Game.MoveDelay} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("game: %s: %w", name, err)
		}
	}
	if c.Game.TurnLimit < 0 {
		return fmt.Errorf("game: turn limit must not be negative")
	}

	if len(c.Players) < 2 {
		return fmt.Errorf("at least 2 players must be configured, got %d", len(c.Players))
	}
	seen := make(map[string]bool)
	for _, p := range c.Players {
		if p.Name == "" {
			return fmt.Errorf("player name must not be empty")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate player %q", p.Name)
		}
		seen[p.Name] = true

		if _, err := game.ParseController(p.Controller); err != nil {
			return fmt.Errorf("player %s: %w", p.Name, err)
		}
		for field, v := range map[string]string{
			"think_time": p.ThinkTime,
			"timeout":    p.Timeout,
			"base_delay": p.BaseDelay,
			"max_delay":  p.MaxDelay,
		} {
			if _, err := parseDuration(v); err != nil {
				return fmt.Errorf("player %s: %s: %w", p.Name, field, err)
			}
		}
		if p.MaxRetries != nil && *p.MaxRetries < 0 {
			return fmt.Errorf("player %s: max_retries must not be negative", p.Name)
		}
		if p.LegalityRetries != nil && *p.LegalityRetries < 0 {
			return fmt.Errorf("player %s: legality_retries must not be negative", p.Name)
		}
	}
	return nil
}

// ScoringRules resolves the rules variant and its overrides.
func (c *Config) ScoringRules() (scoring.Rules, error) {
	variant, err := scoring.ParseVariant(c.Game.Rules)
	if err != nil {
		return scoring.Rules{}, fmt.Errorf("game: %w", err)
	}

	rules := scoring.DefaultRules()
	if variant == scoring.FixedTable {
		rules = scoring.FixedTableRules()
	}
	if c.Game.InstantWinOnes != nil {
		if n := *c.Game.InstantWinOnes; n != 0 && (n < 3 || n > game.NumDice) {
			return scoring.Rules{}, fmt.Errorf("game: instant_win_ones must be 0 or 3-%d, got %d", game.NumDice, n)
		}
		rules.InstantWinOnes = *c.Game.InstantWinOnes
	}
	if c.Game.RequireProof != nil {
		rules.RequireProof = *c.Game.RequireProof
	}
	return rules, nil
}

// Seats lists the players for game.New.
func (c *Config) Seats() []game.Seat {
	seats := make([]game.Seat, len(c.Players))
	for i, p := range c.Players {
		ctrl, _ := game.ParseController(p.Controller)
		seats[i] = game.Seat{Name: p.Name, Controller: ctrl}
	}
	return seats
}

// GameOptions are the engine options implied by the game block.
func (c *Config) GameOptions() ([]game.Option, error) {
	rules, err := c.ScoringRules()
	if err != nil {
		return nil, err
	}
	return []game.Option{
		game.WithWinningScore(c.Game.WinningScore),
		game.WithRules(rules),
	}, nil
}

// BustDelay is how long a busted roll stays on screen.
func (c *Config) BustDelay() time.Duration {
	d, _ := parseDuration(c.Game.BustDelay)
	return d
}

// MoveDelay is the pause after each agent move in headless runs.
func (c *Config) MoveDelay() time.Duration {
	d, _ := parseDuration(c.Game.MoveDelay)
	return d
}

// ThinkTimeValue is the parsed think_time, defaulting to DefaultThinkTime.
func (p PlayerConfig) ThinkTimeValue() time.Duration {
	return durationOr(p.ThinkTime, DefaultThinkTime)
}

// TimeoutValue is the parsed timeout, or def when unset.
func (p PlayerConfig) TimeoutValue(def time.Duration) time.Duration {
	return durationOr(p.Timeout, def)
}

// BaseDelayValue is the parsed base_delay, or def when unset.
func (p PlayerConfig) BaseDelayValue(def time.Duration) time.Duration {
	return durationOr(p.BaseDelay, def)
}

// MaxDelayValue is the parsed max_delay, or def when unset.
func (p PlayerConfig) MaxDelayValue(def time.Duration) time.Duration {
	return durationOr(p.MaxDelay, def)
}

// MaxRetriesValue is max_retries, or def when unset.
func (p PlayerConfig) MaxRetriesValue(def int) int {
	if p.MaxRetries == nil {
		return def
	}
	return *p.MaxRetries
}

// LegalityRetriesValue is legality_retries, or def when unset.
func (p PlayerConfig) LegalityRetriesValue(def int) int {
	if p.LegalityRetries == nil {
		return def
	}
	return *p.LegalityRetries
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", s)
	}
	return d, nil
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := parseDuration(s)
	if err != nil {
		return def
	}
	return d
}
