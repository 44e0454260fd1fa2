package game

import (
	"github.com/felkru/farkle/internal/gameid"
	"github.com/felkru/farkle/internal/scoring"
)

// Option configures an Engine during creation.
type Option func(*engineConfig)

type engineConfig struct {
	id           string
	rules        scoring.Rules
	winningScore int
	startPlayer  int
}

// WithWinningScore sets the banked total that wins the game.
// Default is DefaultWinningScore.
func WithWinningScore(score int) Option {
	return func(c *engineConfig) {
		c.winningScore = score
	}
}

// WithRules selects the scoring rules. Default is scoring.DefaultRules.
func WithRules(rules scoring.Rules) Option {
	return func(c *engineConfig) {
		c.rules = rules
	}
}

// WithID sets the game ID instead of generating one.
func WithID(id string) Option {
	return func(c *engineConfig) {
		c.id = id
	}
}

// WithStartingPlayer sets which seat takes the first turn.
func WithStartingPlayer(index int) Option {
	return func(c *engineConfig) {
		c.startPlayer = index
	}
}

// New creates an engine and performs the opening roll for the first player.
// The roller is required so that every source of randomness is explicit.
//
// Example usage:
//
//	// Production
//	e := New(randutil.NewD6(seed), seats)
//
//	// With options
//	e := New(roller, seats,
//	    WithWinningScore(5000),
//	    WithRules(scoring.FixedTableRules()))
func New(roller Roller, seats []Seat, opts ...Option) *Engine {
	if roller == nil {
		panic("roller is required for game creation")
	}
	if len(seats) < 2 {
		panic("at least 2 players required")
	}

	cfg := &engineConfig{
		rules:        scoring.DefaultRules(),
		winningScore: DefaultWinningScore,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.winningScore <= 0 {
		panic("winning score must be positive")
	}
	if cfg.startPlayer < 0 || cfg.startPlayer >= len(seats) {
		panic("starting player out of range")
	}
	if cfg.id == "" {
		cfg.id = gameid.New()
	}

	players := make([]Player, len(seats))
	for i, s := range seats {
		ctrl := s.Controller
		if ctrl == "" {
			ctrl = Human
		}
		players[i] = Player{Index: i, Name: s.Name, Controller: ctrl}
	}

	e := &Engine{
		id:           cfg.id,
		rules:        cfg.rules,
		winningScore: cfg.winningScore,
		roller:       roller,
		players:      players,
		current:      cfg.startPlayer,
		turn:         1,
	}
	e.resetDice()
	e.roll()
	if e.status == Active {
		e.message = "Welcome to Farkle! " + e.players[e.current].Name + " to play."
	}
	return e
}
