// Package remote is the agent that asks a user-supplied HTTP endpoint for
// moves.
//
// Each decision POSTs the wire game state to the endpoint and expects a move
// back. Transport failures, timeouts and 429/5xx answers are retried with
// capped exponential backoff. A move the engine would refuse is sent back
// with lastError set to the reason, up to LegalityRetries times; every
// re-query starts with a fresh network budget.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
)

const (
	DefaultTimeout         = 15 * time.Second
	DefaultBaseDelay       = time.Second
	DefaultMaxDelay        = 30 * time.Second
	DefaultMaxRetries      = 5
	DefaultLegalityRetries = 3

	maxErrorBody = 1 << 10
	maxMoveBody  = 64 << 10
)

// Config is the per-seat endpoint configuration.
type Config struct {
	Endpoint        string
	Timeout         time.Duration
	Backoff         agent.Backoff
	LegalityRetries int
}

// DefaultConfig returns the standard timeouts and retry budgets for endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint: endpoint,
		Timeout:  DefaultTimeout,
		Backoff: agent.Backoff{
			Base:    DefaultBaseDelay,
			Max:     DefaultMaxDelay,
			Retries: DefaultMaxRetries,
		},
		LegalityRetries: DefaultLegalityRetries,
	}
}

// Agent queries a remote endpoint.
type Agent struct {
	cfg     Config
	client  *http.Client
	clock   quartz.Clock
	logger  *log.Logger
	onRetry func(agent.RetryEvent)
}

// Option configures an Agent.
type Option func(*Agent)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.client = c }
}

// WithClock sets the clock used for backoff waits.
func WithClock(clock quartz.Clock) Option {
	return func(a *Agent) { a.clock = clock }
}

// WithRetryObserver registers a callback for every network retry. It runs once
// the backoff timer is scheduled.
func WithRetryObserver(fn func(agent.RetryEvent)) Option {
	return func(a *Agent) { a.onRetry = fn }
}

// New creates a remote agent. Configuration problems are reported by Decide
// so that a misconfigured seat fails its turn rather than the whole program.
func New(cfg Config, logger *log.Logger, opts ...Option) *Agent {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff.Base = DefaultBaseDelay
	}
	if cfg.Backoff.Max <= 0 {
		cfg.Backoff.Max = DefaultMaxDelay
	}
	if cfg.Backoff.Retries < 0 {
		cfg.Backoff.Retries = 0
	}
	if cfg.LegalityRetries < 0 {
		cfg.LegalityRetries = 0
	}

	a := &Agent{
		cfg:    cfg,
		client: &http.Client{},
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("remote-agent").With("endpoint", cfg.Endpoint),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Decide implements agent.Agent.
func (a *Agent) Decide(ctx context.Context, snap game.Snapshot, progress agent.ProgressFunc) (game.Move, error) {
	if a.cfg.Endpoint == "" {
		return game.Move{}, &agent.Error{Agent: "remote", Kind: agent.KindConfig, Err: agent.ErrMissingEndpoint}
	}

	var lastError string
	total := 0
	for legal := 0; ; legal++ {
		if lastError == "" {
			progress.Report(fmt.Sprintf("Calling remote agent at %s...", a.cfg.Endpoint))
		} else {
			progress.Report(fmt.Sprintf("Move invalid: %s. Retrying (legal attempt %d)...", lastError, legal+1))
		}

		move, n, err := a.query(ctx, snap, lastError, progress)
		total += n
		if err != nil {
			return game.Move{}, a.classify(ctx, err, total)
		}

		verr := snap.ValidateMove(move.Keep, move.Action)
		if verr == nil {
			a.logger.Debug("Move accepted", "move", move, "attempts", total)
			return move, nil
		}

		a.logger.Warn("Endpoint proposed an illegal move", "move", move, "error", verr)
		if legal >= a.cfg.LegalityRetries {
			return game.Move{}, &agent.Error{
				Agent:    "remote",
				Kind:     agent.KindLegality,
				Attempts: legal + 1,
				Err:      fmt.Errorf("invalid move after %d attempts: %w", legal+1, verr),
			}
		}

		var ime *game.IllegalMoveError
		if errors.As(verr, &ime) {
			lastError = ime.Reason
		} else {
			lastError = verr.Error()
		}
	}
}

func (a *Agent) classify(ctx context.Context, err error, attempts int) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	kind := agent.KindNetwork
	var se *agent.StatusError
	switch {
	case errors.Is(err, agent.ErrRetriesExhausted):
	case errors.Is(err, agent.ErrMalformedResponse), errors.As(err, &se):
		kind = agent.KindProtocol
	}
	return &agent.Error{Agent: "remote", Kind: kind, Attempts: attempts, Err: err}
}

// query posts the state until the network budget is spent.
func (a *Agent) query(ctx context.Context, snap game.Snapshot, lastError string, progress agent.ProgressFunc) (game.Move, int, error) {
	body, err := json.Marshal(agent.NewGameState(snap, lastError))
	if err != nil {
		return game.Move{}, 0, fmt.Errorf("failed to encode game state: %w", err)
	}

	var move game.Move
	onRetry := func(ev agent.RetryEvent) {
		a.logger.Warn("Network issue, retrying", "attempt", ev.Attempt, "delay", ev.Delay, "error", ev.Err)
		progress.Report(fmt.Sprintf("Network issue. Retrying in %s... (attempt %d)", agent.FormatDelay(ev.Delay), ev.Attempt+1))
		if a.onRetry != nil {
			a.onRetry(ev)
		}
	}

	n, err := a.cfg.Backoff.Do(ctx, a.clock, func(ctx context.Context, _ int) error {
		m, err := a.post(ctx, body)
		if err != nil {
			return err
		}
		move = m
		return nil
	}, onRetry)
	return move, n, err
}

func (a *Agent) post(ctx context.Context, body []byte) (game.Move, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return game.Move{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return game.Move{}, ctx.Err()
		}
		// Transport failures and the per-request timeout.
		return game.Move{}, agent.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &agent.StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
		if agent.IsTransientStatus(resp.StatusCode) {
			return game.Move{}, agent.Transient(serr)
		}
		return game.Move{}, serr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMoveBody))
	if err != nil {
		if ctx.Err() != nil {
			return game.Move{}, ctx.Err()
		}
		return game.Move{}, agent.Transient(fmt.Errorf("failed to read response: %w", err))
	}
	return agent.DecodeMove(data)
}
