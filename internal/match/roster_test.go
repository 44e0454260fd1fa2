package match

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/agent/greedy"
	"github.com/felkru/farkle/internal/agent/hosted"
	"github.com/felkru/farkle/internal/agent/remote"
	"github.com/felkru/farkle/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAgents(t *testing.T) {
	t.Parallel()
	cfg, err := config.Parse([]byte(`
player "Human" {}
player "Greedy" {
  controller = "greedy"
}
player "Remote" {
  controller = "remote"
  endpoint   = "http://localhost:9999/move"
}
player "Model" {
  controller = "hosted"
}
`), "roster.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	agents, err := BuildAgents(cfg, Deps{
		Logger: testLogger(),
		Clock:  quartz.NewMock(t),
		Model:  config.ModelEnv{APIKey: "sk-test", Model: "gpt-4o-mini"},
	})
	require.NoError(t, err)
	require.Len(t, agents, 4)

	assert.Nil(t, agents[0])
	assert.IsType(t, &greedy.Agent{}, agents[1])
	assert.IsType(t, &remote.Agent{}, agents[2])
	assert.IsType(t, &hosted.Agent{}, agents[3])
}

func TestBuildAgentsConfigErrors(t *testing.T) {
	t.Parallel()

	t.Run("remote without endpoint", func(t *testing.T) {
		cfg := config.Default()
		cfg.Players[1].Controller = "remote"

		_, err := BuildAgents(cfg, Deps{Logger: testLogger()})
		assert.Equal(t, agent.KindConfig, agent.KindOf(err))
		assert.ErrorIs(t, err, agent.ErrMissingEndpoint)
	})

	t.Run("hosted without credential", func(t *testing.T) {
		cfg := config.Default()
		cfg.Players[1].Controller = "hosted"

		_, err := BuildAgents(cfg, Deps{Logger: testLogger()})
		assert.Equal(t, agent.KindConfig, agent.KindOf(err))
		assert.ErrorIs(t, err, agent.ErrMissingCredential)
	})
}

func TestBuildAgentsHonoursZeroRetries(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg, err := config.Parse([]byte(`
player "Human" {}
player "Model" {
  controller  = "hosted"
  max_retries = 0
}
`), "roster.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	agents, err := BuildAgents(cfg, Deps{
		Logger: testLogger(),
		Clock:  quartz.NewMock(t),
		Model:  config.ModelEnv{APIKey: "sk-test", BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)

	e := newScriptedEngine(t, []int{1, 2, 3, 4, 6, 2})
	_, err = agents[1].Decide(context.Background(), e.Snapshot(), nil)

	assert.Equal(t, agent.KindNetwork, agent.KindOf(err))
	assert.ErrorIs(t, err, agent.ErrRetriesExhausted)
	assert.EqualValues(t, 1, calls.Load())
}
