// Package hosted is the agent backed by a hosted language model.
//
// It speaks the OpenAI chat completions API, which most hosted and local model
// servers accept, and asks for output constrained to the move JSON schema.
package hosted

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

//go:embed rules.md
var rulesText string

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 60 * time.Second
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 16 * time.Second
	DefaultMaxRetries = 50
)

// Config selects the model and its endpoint.
type Config struct {
	APIKey  string
	BaseURL string // empty uses the OpenAI API
	Model   string
	Timeout time.Duration
	Backoff agent.Backoff
}

// DefaultConfig returns the default model, timeout and retry budget for
// apiKey. A zero Backoff.Retries in a hand-built Config means no retries.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   DefaultModel,
		Timeout: DefaultTimeout,
		Backoff: agent.Backoff{
			Base:    DefaultBaseDelay,
			Max:     DefaultMaxDelay,
			Retries: DefaultMaxRetries,
		},
	}
}

// Agent asks a hosted model for moves.
type Agent struct {
	cfg     Config
	client  openai.Client
	clock   quartz.Clock
	logger  *log.Logger
	onRetry func(agent.RetryEvent)
	hc      *http.Client
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock sets the clock used for backoff waits.
func WithClock(clock quartz.Clock) Option {
	return func(a *Agent) { a.clock = clock }
}

// WithHTTPClient replaces the HTTP client used by the API client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.hc = c }
}

// WithRetryObserver registers a callback for every retry. It runs once the
// backoff timer is scheduled.
func WithRetryObserver(fn func(agent.RetryEvent)) Option {
	return func(a *Agent) { a.onRetry = fn }
}

// New creates a hosted-model agent. A missing API key is reported by Decide.
func New(cfg Config, logger *log.Logger, opts ...Option) *Agent {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
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

	a := &Agent{
		cfg:    cfg,
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("hosted-agent").With("model", cfg.Model),
	}
	for _, opt := range opts {
		opt(a)
	}

	// Retries are ours, so that waits run on the injected clock and are
	// reported through progress.
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if a.hc != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(a.hc))
	}
	a.client = openai.NewClient(clientOpts...)
	return a
}

// Decide implements agent.Agent.
func (a *Agent) Decide(ctx context.Context, snap game.Snapshot, progress agent.ProgressFunc) (game.Move, error) {
	if a.cfg.APIKey == "" {
		return game.Move{}, &agent.Error{Agent: "hosted", Kind: agent.KindConfig, Err: agent.ErrMissingCredential}
	}

	prompt, err := Prompt(snap, "")
	if err != nil {
		return game.Move{}, &agent.Error{Agent: "hosted", Kind: agent.KindProtocol, Err: err}
	}

	progress.Report(fmt.Sprintf("Asking %s...", a.cfg.Model))
	var move game.Move
	n, err := a.cfg.Backoff.Do(ctx, a.clock, func(ctx context.Context, _ int) error {
		m, err := a.generate(ctx, prompt)
		if err != nil {
			return err
		}
		move = m
		return nil
	}, func(ev agent.RetryEvent) {
		msg := fmt.Sprintf("Connection issue (%s). Retrying in %s... (attempt %d)", describe(ev.Err), agent.FormatDelay(ev.Delay), ev.Attempt+1)
		a.logger.Warn(msg)
		progress.Report(msg)
		if a.onRetry != nil {
			a.onRetry(ev)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return game.Move{}, ctx.Err()
		}
		kind := agent.KindProtocol
		if errors.Is(err, agent.ErrRetriesExhausted) {
			kind = agent.KindNetwork
		}
		return game.Move{}, &agent.Error{Agent: "hosted", Kind: kind, Attempts: n, Err: err}
	}

	a.logger.Debug("Decided", "player", snap.ActivePlayer().Name, "move", move, "attempts", n)
	return move, nil
}

func (a *Agent) generate(ctx context.Context, prompt string) (game.Move, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	completion, err := a.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an expert Farkle player. Answer with a single JSON move."),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "farkle_move",
					Schema: agent.MoveSchema(),
				},
			},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return game.Move{}, ctx.Err()
		}
		if transient(err) {
			return game.Move{}, agent.Transient(err)
		}
		return game.Move{}, err
	}

	if len(completion.Choices) == 0 {
		return game.Move{}, fmt.Errorf("%w: no choices in completion", agent.ErrMalformedResponse)
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return game.Move{}, fmt.Errorf("%w: empty completion", agent.ErrMalformedResponse)
	}
	return agent.DecodeMove([]byte(stripFence(text)))
}

// transient reports whether a completion error is worth retrying: rate
// limits, server errors and timeouts.
func transient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return agent.IsTransientStatus(apiErr.StatusCode)
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func describe(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%d", apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "network"
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Prompt renders the rules and the wire game state for the model.
func Prompt(snap game.Snapshot, lastError string) (string, error) {
	state, err := json.MarshalIndent(agent.NewGameState(snap, lastError), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode game state: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your goal is to win by reaching %d points first.\n\n", snap.WinningScore)
	sb.WriteString("RULES:\n")
	sb.WriteString(rulesText)
	sb.WriteString("\nCURRENT GAME STATE:\n")
	sb.Write(state)
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString("1. Analyze the dice and the scores.\n")
	sb.WriteString("2. Select which dice to keep. They must be scoring dice.\n")
	sb.WriteString("3. Decide whether to BANK the points or ROLL again.\n")
	return sb.String(), nil
}
