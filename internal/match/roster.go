package match

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/agent/greedy"
	"github.com/felkru/farkle/internal/agent/hosted"
	"github.com/felkru/farkle/internal/agent/remote"
	"github.com/felkru/farkle/internal/config"
	"github.com/felkru/farkle/internal/game"
)

// Deps are the shared collaborators agents are built with.
type Deps struct {
	Logger     *log.Logger
	Clock      quartz.Clock
	Model      config.ModelEnv
	HTTPClient *http.Client
}

// BuildAgents creates one agent per configured seat, indexed like
// cfg.Players. Human seats get nil. Missing endpoints and credentials are
// reported here, before any network attempt.
func BuildAgents(cfg *config.Config, deps Deps) ([]agent.Agent, error) {
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}

	agents := make([]agent.Agent, len(cfg.Players))
	for i, p := range cfg.Players {
		ctrl, err := game.ParseController(p.Controller)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.Name, err)
		}
		logger := deps.Logger.With("player", p.Name)

		switch ctrl {
		case game.Human:
			continue

		case game.Greedy:
			agents[i] = greedy.New(logger,
				greedy.WithThinkTime(p.ThinkTimeValue()),
				greedy.WithClock(deps.Clock))

		case game.Remote:
			if p.Endpoint == "" {
				return nil, &agent.Error{Agent: "remote", Kind: agent.KindConfig, Err: fmt.Errorf("player %s: %w", p.Name, agent.ErrMissingEndpoint)}
			}
			rc := remote.Config{
				Endpoint: p.Endpoint,
				Timeout:  p.TimeoutValue(remote.DefaultTimeout),
				Backoff: agent.Backoff{
					Base:    p.BaseDelayValue(remote.DefaultBaseDelay),
					Max:     p.MaxDelayValue(remote.DefaultMaxDelay),
					Retries: p.MaxRetriesValue(remote.DefaultMaxRetries),
				},
				LegalityRetries: p.LegalityRetriesValue(remote.DefaultLegalityRetries),
			}
			opts := []remote.Option{remote.WithClock(deps.Clock)}
			if deps.HTTPClient != nil {
				opts = append(opts, remote.WithHTTPClient(deps.HTTPClient))
			}
			agents[i] = remote.New(rc, logger, opts...)

		case game.Hosted:
			if deps.Model.APIKey == "" {
				return nil, &agent.Error{Agent: "hosted", Kind: agent.KindConfig, Err: fmt.Errorf("player %s: %w (set FARKLE_MODEL_API_KEY)", p.Name, agent.ErrMissingCredential)}
			}
			model := p.Model
			if model == "" {
				model = deps.Model.Model
			}
			hc := hosted.Config{
				APIKey:  deps.Model.APIKey,
				BaseURL: deps.Model.BaseURL,
				Model:   model,
				Timeout: p.TimeoutValue(deps.Model.Timeout),
				Backoff: agent.Backoff{
					Base:    p.BaseDelayValue(hosted.DefaultBaseDelay),
					Max:     p.MaxDelayValue(hosted.DefaultMaxDelay),
					Retries: p.MaxRetriesValue(hosted.DefaultMaxRetries),
				},
			}
			opts := []hosted.Option{hosted.WithClock(deps.Clock)}
			if deps.HTTPClient != nil {
				opts = append(opts, hosted.WithHTTPClient(deps.HTTPClient))
			}
			agents[i] = hosted.New(hc, logger, opts...)
		}
	}
	return agents, nil
}
