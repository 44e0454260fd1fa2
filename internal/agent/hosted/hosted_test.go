package hosted

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/felkru/farkle/internal/agent"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() game.Snapshot {
	return game.Snapshot{
		Players: []game.Player{
			{Index: 0, Name: "Model", Controller: game.Hosted},
			{Index: 1, Name: "Alice", Controller: game.Human, Score: 500},
		},
		Dice: [game.NumDice]game.Die{
			{ID: 0, Value: 1}, {ID: 1, Value: 2}, {ID: 2, Value: 3},
			{ID: 3, Value: 4}, {ID: 4, Value: 6}, {ID: 5, Value: 5},
		},
		Status:       game.Active,
		Message:      "Select dice to keep.",
		WinningScore: game.DefaultWinningScore,
		Rules:        scoring.DefaultRules(),
	}
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"logprobs":      nil,
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
				"refusal": nil,
			},
		}},
	})
	return string(b)
}

// fakeModel answers chat completion requests: the first failures calls get
// failCode, the rest get content.
func fakeModel(t *testing.T, failures int, failCode int, content string) (*httptest.Server, *atomic.Int32, chan map[string]any) {
	t.Helper()
	var calls atomic.Int32
	bodies := make(chan map[string]any, 100)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if int(n) <= failures {
			w.WriteHeader(failCode)
			_, _ = io.WriteString(w, `{"error":{"message":"try later","type":"server_error"}}`)
			return
		}
		_, _ = io.WriteString(w, completion(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, bodies
}

func newAgent(t *testing.T, srv *httptest.Server, opts ...Option) *Agent {
	t.Helper()
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/"
	cfg.Model = "test-model"
	return New(cfg, log.NewWithOptions(io.Discard, log.Options{}), opts...)
}

func TestDecide(t *testing.T) {
	t.Parallel()
	srv, calls, bodies := fakeModel(t, 0, 0, `{"keepDiceIds":[0,5],"action":"BANK","explanation":"150 is fine"}`)

	a := newAgent(t, srv, WithClock(quartz.NewMock(t)))
	m, err := a.Decide(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	assert.Equal(t, game.ActionBank, m.Action)
	assert.Equal(t, []int{0, 5}, m.Keep)
	assert.Equal(t, "150 is fine", m.Explanation)
	assert.EqualValues(t, 1, calls.Load())

	body := <-bodies
	assert.Equal(t, "test-model", body["model"])
	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestDecideAcceptsFencedJSON(t *testing.T) {
	t.Parallel()
	srv, _, _ := fakeModel(t, 0, 0, "```json\n{\"keepDiceIds\":[0],\"action\":\"ROLL\"}\n```")

	m, err := newAgent(t, srv, WithClock(quartz.NewMock(t))).Decide(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, game.ActionRoll, m.Action)
}

func TestDecideRetriesRateLimits(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv, calls, _ := fakeModel(t, 2, http.StatusTooManyRequests, `{"keepDiceIds":[0],"action":"BANK"}`)
	mClock := quartz.NewMock(t)
	events := make(chan agent.RetryEvent, 10)
	a := newAgent(t, srv, WithClock(mClock), WithRetryObserver(func(ev agent.RetryEvent) { events <- ev }))

	var progress []string
	progressCh := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		_, err := a.Decide(ctx, testSnapshot(), func(msg string) { progressCh <- msg })
		done <- err
	}()

	var delays []time.Duration
	for range 2 {
		ev := <-events
		delays = append(delays, ev.Delay)
		mClock.Advance(ev.Delay).MustWait(ctx)
	}
	require.NoError(t, <-done)
	close(progressCh)
	for msg := range progressCh {
		progress = append(progress, msg)
	}

	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
	require.Len(t, progress, 3)
	assert.Contains(t, progress[1], "Connection issue (429)")
	assert.Contains(t, progress[1], "Retrying in 1s")
}

func TestDecidePermanentErrorPropagates(t *testing.T) {
	t.Parallel()
	srv, calls, _ := fakeModel(t, 100, http.StatusUnauthorized, "")

	_, err := newAgent(t, srv, WithClock(quartz.NewMock(t))).Decide(context.Background(), testSnapshot(), nil)
	assert.Equal(t, agent.KindProtocol, agent.KindOf(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestDecideMalformedOutput(t *testing.T) {
	t.Parallel()
	srv, _, _ := fakeModel(t, 0, 0, `I would bank here.`)

	_, err := newAgent(t, srv, WithClock(quartz.NewMock(t))).Decide(context.Background(), testSnapshot(), nil)
	assert.ErrorIs(t, err, agent.ErrMalformedResponse)
	assert.Equal(t, agent.KindProtocol, agent.KindOf(err))
}

func TestDecideZeroRetriesMakesOneAttempt(t *testing.T) {
	t.Parallel()
	srv, calls, _ := fakeModel(t, 100, http.StatusServiceUnavailable, "")

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/"
	cfg.Backoff.Retries = 0
	_, err := New(cfg, log.NewWithOptions(io.Discard, log.Options{}), WithClock(quartz.NewMock(t))).
		Decide(context.Background(), testSnapshot(), nil)

	assert.ErrorIs(t, err, agent.ErrRetriesExhausted)
	assert.Equal(t, agent.KindNetwork, agent.KindOf(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestDecideMissingCredential(t *testing.T) {
	t.Parallel()
	a := New(Config{}, log.NewWithOptions(io.Discard, log.Options{}))
	_, err := a.Decide(context.Background(), testSnapshot(), nil)

	assert.Equal(t, agent.KindConfig, agent.KindOf(err))
	assert.ErrorIs(t, err, agent.ErrMissingCredential)
}

func TestPrompt(t *testing.T) {
	t.Parallel()
	p, err := Prompt(testSnapshot(), "die 2 does not score")
	require.NoError(t, err)

	assert.Contains(t, p, "reaching 10000 points")
	assert.Contains(t, p, "Hot hand")
	assert.Contains(t, p, `"lastError": "die 2 does not score"`)
	assert.Contains(t, p, `"isMyTurn": true`)
}
