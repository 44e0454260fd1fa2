// Package tui is the interactive terminal front end. It drives one engine at
// a time: human seats play from the keyboard, agent seats run as background
// commands whose results are applied through match.ApplyMove.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/match"
)

// Options describes the games the model plays.
type Options struct {
	Seats       []game.Seat
	Agents      []agent.Agent // nil entries are human seats
	GameOptions []game.Option
	NewRoller   func() game.Roller
	BustDelay   time.Duration
	MoveDelay   time.Duration
	Observer    func(game.Snapshot)
}

// Model is the bubbletea model for a local game.
type Model struct {
	opts   Options
	logger *log.Logger

	engine *game.Engine
	snap   game.Snapshot
	ctx    context.Context
	cancel context.CancelFunc

	// epoch changes on every engine mutation; timers carrying an older
	// epoch are ignored.
	epoch int

	cursor   int
	thinking bool
	progress string
	lastMove string
	lastErr  error
	quitting bool

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width int
}

type agentTurnMsg struct {
	gameID string
	epoch  int
}

type agentResultMsg struct {
	gameID string
	player game.Player
	move   game.Move
	err    error
}

type progressMsg struct {
	gameID string
	text   string
	ch     <-chan string
}

type bustElapsedMsg struct {
	gameID string
	epoch  int
}

// New creates a model and starts its first game.
func New(opts Options, logger *log.Logger) *Model {
	if opts.NewRoller == nil {
		panic("tui: NewRoller is required")
	}
	if len(opts.Agents) != len(opts.Seats) {
		panic(fmt.Sprintf("tui: %d agents for %d seats", len(opts.Agents), len(opts.Seats)))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = WarningStyle

	m := &Model{
		opts:    opts,
		logger:  logger.WithPrefix("tui"),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
	m.newGame()
	return m
}

// Snapshot returns the state currently on screen.
func (m *Model) Snapshot() game.Snapshot { return m.snap.Clone() }

// LastError returns the last agent failure still on screen.
func (m *Model) LastError() error { return m.lastErr }

// Thinking reports whether an agent decision is in flight.
func (m *Model) Thinking() bool { return m.thinking }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.advance()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !m.thinking {
			return m, nil
		}
		return m, cmd

	case agentTurnMsg:
		if msg.gameID != m.snap.GameID || msg.epoch != m.epoch || m.thinking {
			return m, nil
		}
		return m, m.startAgent()

	case progressMsg:
		if msg.gameID != m.snap.GameID || !m.thinking {
			return m, nil
		}
		m.progress = msg.text
		return m, listenProgress(msg.gameID, msg.ch)

	case agentResultMsg:
		return m, m.applyResult(msg)

	case bustElapsedMsg:
		if msg.gameID != m.snap.GameID || msg.epoch != m.epoch || m.snap.Status != game.Busted {
			return m, nil
		}
		m.engine.PassTurn()
		return m, m.advance()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.NewGame):
		m.newGame()
		return m, m.advance()

	case key.Matches(msg, m.keys.Left):
		m.cursor = (m.cursor + game.NumDice - 1) % game.NumDice
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.cursor = (m.cursor + 1) % game.NumDice
		return m, nil

	case key.Matches(msg, m.keys.Pass):
		// Passing skips the bust pause or a stuck agent.
		if m.thinking || m.snap.Status == game.Won {
			return m, nil
		}
		if m.snap.Status == game.Busted || (m.lastErr != nil && m.currentAgent() != nil) {
			m.lastErr = nil
			m.engine.PassTurn()
			return m, m.advance()
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if m.lastErr == nil || m.thinking || m.currentAgent() == nil || m.snap.Status != game.Active {
			return m, nil
		}
		m.lastErr = nil
		return m, m.startAgent()
	}

	if !m.humanTurn() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.engine.ToggleKeep(m.cursor)
	case key.Matches(msg, m.keys.Roll):
		m.engine.Roll()
	case key.Matches(msg, m.keys.Bank):
		m.engine.Bank()
	default:
		return m, nil
	}
	return m, m.advance()
}

func (m *Model) newGame() {
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.engine = game.New(m.opts.NewRoller(), m.opts.Seats, m.opts.GameOptions...)
	m.snap = m.engine.Snapshot()
	m.cursor = 0
	m.thinking = false
	m.progress = ""
	m.lastMove = ""
	m.lastErr = nil
	m.logger.Info("New game", "game_id", m.engine.ID())
}

// advance publishes the engine state and schedules whatever happens next
// without a key press.
func (m *Model) advance() tea.Cmd {
	m.epoch++
	m.snap = m.engine.Snapshot()
	if m.opts.Observer != nil {
		m.opts.Observer(m.snap.Clone())
	}

	gameID, epoch := m.snap.GameID, m.epoch
	switch m.snap.Status {
	case game.Won:
		m.logger.Info("Game over", "winner", m.snap.ActivePlayer().Name, "turns", m.snap.Turn)
		return nil
	case game.Busted:
		return tea.Tick(m.opts.BustDelay, func(time.Time) tea.Msg {
			return bustElapsedMsg{gameID: gameID, epoch: epoch}
		})
	}

	if m.currentAgent() == nil {
		return nil
	}
	if m.opts.MoveDelay <= 0 {
		return m.startAgent()
	}
	return tea.Tick(m.opts.MoveDelay, func(time.Time) tea.Msg {
		return agentTurnMsg{gameID: gameID, epoch: epoch}
	})
}

func (m *Model) startAgent() tea.Cmd {
	a := m.currentAgent()
	if a == nil {
		return nil
	}
	m.thinking = true
	m.progress = ""

	ch := make(chan string, 16)
	return tea.Batch(
		m.spinner.Tick,
		decide(m.ctx, a, m.snap.Clone(), ch),
		listenProgress(m.snap.GameID, ch),
	)
}

// decide runs one agent decision. Progress lines that arrive faster than
// the screen drains them are dropped.
func decide(ctx context.Context, a agent.Agent, snap game.Snapshot, ch chan string) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		progress := func(text string) {
			select {
			case ch <- text:
			default:
			}
		}
		move, err := a.Decide(ctx, snap, progress)
		if err == nil {
			err = ctx.Err()
		}
		return agentResultMsg{gameID: snap.GameID, player: snap.ActivePlayer(), move: move, err: err}
	}
}

func listenProgress(gameID string, ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg{gameID: gameID, text: text, ch: ch}
	}
}

func (m *Model) applyResult(msg agentResultMsg) tea.Cmd {
	if msg.gameID != m.snap.GameID {
		m.logger.Debug("Dropping result from a finished game", "game_id", msg.gameID)
		return nil
	}
	m.thinking = false
	m.progress = ""

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		m.logger.Warn("Agent failed", "player", msg.player.Name, "error", msg.err)
		m.lastErr = msg.err
		return nil
	}

	if err := match.ApplyMove(m.engine, msg.gameID, msg.move); err != nil {
		if errors.Is(err, match.ErrStaleMove) {
			return nil
		}
		m.logger.Warn("Rejected move", "player", msg.player.Name, "move", msg.move, "error", err)
		m.lastErr = &agent.Error{Agent: string(msg.player.Controller), Kind: agent.KindLegality, Attempts: 1, Err: err}
		return nil
	}

	m.lastErr = nil
	m.lastMove = fmt.Sprintf("%s: %s", msg.player.Name, msg.move)
	if msg.move.Explanation != "" {
		m.lastMove += fmt.Sprintf(" (%q)", msg.move.Explanation)
	}
	return m.advance()
}

func (m *Model) currentAgent() agent.Agent {
	i := m.snap.CurrentPlayer
	if i < 0 || i >= len(m.opts.Agents) {
		return nil
	}
	return m.opts.Agents[i]
}

func (m *Model) humanTurn() bool {
	return m.snap.Status == game.Active && !m.thinking && m.currentAgent() == nil
}
