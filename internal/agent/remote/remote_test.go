package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
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

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testSnapshot has die 0 Locked, dice 1-3 showing a set of 2s, a 5 and a 6.
func testSnapshot() game.Snapshot {
	return game.Snapshot{
		GameID:        "01testgame0000000000000000",
		CurrentPlayer: 1,
		Players: []game.Player{
			{Index: 0, Name: "Alice", Controller: game.Human},
			{Index: 1, Name: "Remote Bot", Controller: game.Remote},
		},
		Dice: [game.NumDice]game.Die{
			{ID: 0, Value: 1, State: game.Locked},
			{ID: 1, Value: 2, State: game.Available},
			{ID: 2, Value: 2, State: game.Available},
			{ID: 3, Value: 2, State: game.Available},
			{ID: 4, Value: 5, State: game.Available},
			{ID: 5, Value: 6, State: game.Available},
		},
		TurnScore:    100,
		Status:       game.Active,
		WinningScore: game.DefaultWinningScore,
		Rules:        scoring.DefaultRules(),
	}
}

// recorder is an endpoint that answers from a script and keeps every request.
type recorder struct {
	mu       sync.Mutex
	requests []agent.GameState
	replies  []func(w http.ResponseWriter)
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var gs agent.GameState
	_ = json.NewDecoder(r.Body).Decode(&gs)

	rec.mu.Lock()
	rec.requests = append(rec.requests, gs)
	i := len(rec.requests) - 1
	reply := rec.replies[min(i, len(rec.replies)-1)]
	rec.mu.Unlock()

	reply(w)
}

func (rec *recorder) calls() []agent.GameState {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]agent.GameState(nil), rec.requests...)
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		http.Error(w, http.StatusText(code), code)
	}
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s)
	}
}

type decision struct {
	move game.Move
	err  error
}

func decideAsync(ctx context.Context, a *Agent, snap game.Snapshot) <-chan decision {
	out := make(chan decision, 1)
	go func() {
		m, err := a.Decide(ctx, snap, nil)
		out <- decision{m, err}
	}()
	return out
}

func TestDecideRetriesTransientStatus(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := &recorder{replies: []func(http.ResponseWriter){
		status(http.StatusServiceUnavailable),
		status(http.StatusServiceUnavailable),
		body(`{"action":"BANK","keepDiceIds":[4],"explanation":"safe"}`),
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	mClock := quartz.NewMock(t)
	events := make(chan agent.RetryEvent, 10)
	a := New(DefaultConfig(srv.URL), testLogger(),
		WithClock(mClock),
		WithRetryObserver(func(ev agent.RetryEvent) { events <- ev }))

	res := decideAsync(ctx, a, testSnapshot())

	var delays []time.Duration
	for range 2 {
		ev := <-events
		delays = append(delays, ev.Delay)
		mClock.Advance(ev.Delay).MustWait(ctx)
	}

	d := <-res
	require.NoError(t, d.err)
	assert.Equal(t, game.ActionBank, d.move.Action)
	assert.Equal(t, []int{4}, d.move.Keep)
	assert.Equal(t, "safe", d.move.Explanation)

	assert.Len(t, rec.calls(), 3)
	require.Len(t, delays, 2)
	assert.Less(t, delays[0], delays[1])
}

func TestDecideRequeriesIllegalMoves(t *testing.T) {
	t.Parallel()

	rec := &recorder{replies: []func(http.ResponseWriter){
		body(`{"action":"ROLL","keepDiceIds":[0]}`),
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	a := New(DefaultConfig(srv.URL), testLogger(), WithClock(quartz.NewMock(t)))
	_, err := a.Decide(context.Background(), testSnapshot(), nil)

	require.Error(t, err)
	var ae *agent.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, agent.KindLegality, ae.Kind)
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	calls := rec.calls()
	require.Len(t, calls, DefaultLegalityRetries+1)
	assert.Empty(t, calls[0].LastError)
	for _, c := range calls[1:] {
		assert.Contains(t, c.LastError, "already banked")
	}
}

func TestDecideAcceptsCorrectedMove(t *testing.T) {
	t.Parallel()

	rec := &recorder{replies: []func(http.ResponseWriter){
		body(`{"action":"ROLL","keepDiceIds":[1,2]}`),
		body(`{"action":"ROLL","keepDiceIds":[1,2,3]}`),
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	var progress []string
	a := New(DefaultConfig(srv.URL), testLogger(), WithClock(quartz.NewMock(t)))
	m, err := a.Decide(context.Background(), testSnapshot(), func(msg string) { progress = append(progress, msg) })

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, m.Keep)
	assert.Len(t, rec.calls(), 2)
	require.Len(t, progress, 2)
	assert.Contains(t, progress[1], "Move invalid")
}

func TestDecideRequeriesUnknownDie(t *testing.T) {
	t.Parallel()

	rec := &recorder{replies: []func(http.ResponseWriter){
		body(`{"action":"BANK","keepDiceIds":[7]}`),
		body(`{"action":"BANK","keepDiceIds":[4,4]}`),
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	a := New(DefaultConfig(srv.URL), testLogger(), WithClock(quartz.NewMock(t)))
	m, err := a.Decide(context.Background(), testSnapshot(), nil)

	require.NoError(t, err)
	assert.Equal(t, game.ActionBank, m.Action)
	assert.Equal(t, []int{4, 4}, m.Keep)

	calls := rec.calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].LastError)
	assert.Contains(t, calls[1].LastError, "die 7 does not exist")
}

func TestDecideMalformedResponseIsTerminal(t *testing.T) {
	t.Parallel()

	rec := &recorder{replies: []func(http.ResponseWriter){
		body(`{"move":"bank"}`),
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	a := New(DefaultConfig(srv.URL), testLogger(), WithClock(quartz.NewMock(t)))
	_, err := a.Decide(context.Background(), testSnapshot(), nil)

	assert.Equal(t, agent.KindProtocol, agent.KindOf(err))
	assert.ErrorIs(t, err, agent.ErrMalformedResponse)
	assert.Len(t, rec.calls(), 1)
}

func TestDecidePermanentStatusIsTerminal(t *testing.T) {
	t.Parallel()

	rec := &recorder{replies: []func(http.ResponseWriter){status(http.StatusBadRequest)}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	a := New(DefaultConfig(srv.URL), testLogger(), WithClock(quartz.NewMock(t)))
	_, err := a.Decide(context.Background(), testSnapshot(), nil)

	assert.Equal(t, agent.KindProtocol, agent.KindOf(err))
	var se *agent.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Len(t, rec.calls(), 1)
}

func TestDecideExhaustsNetworkRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := &recorder{replies: []func(http.ResponseWriter){status(http.StatusTooManyRequests)}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Backoff.Retries = 2
	mClock := quartz.NewMock(t)
	events := make(chan agent.RetryEvent, 10)
	a := New(cfg, testLogger(), WithClock(mClock), WithRetryObserver(func(ev agent.RetryEvent) { events <- ev }))

	res := decideAsync(ctx, a, testSnapshot())
	for range 2 {
		ev := <-events
		mClock.Advance(ev.Delay).MustWait(ctx)
	}

	d := <-res
	assert.Equal(t, agent.KindNetwork, agent.KindOf(d.err))
	assert.ErrorIs(t, d.err, agent.ErrRetriesExhausted)
	assert.Len(t, rec.calls(), 3)
}

func TestDecideMissingEndpoint(t *testing.T) {
	t.Parallel()
	a := New(Config{}, testLogger())
	_, err := a.Decide(context.Background(), testSnapshot(), nil)

	assert.Equal(t, agent.KindConfig, agent.KindOf(err))
	assert.ErrorIs(t, err, agent.ErrMissingEndpoint)
}

func TestDecideCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	rec := &recorder{replies: []func(http.ResponseWriter){status(http.StatusBadGateway)}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	a := New(DefaultConfig(srv.URL), testLogger(),
		WithClock(quartz.NewMock(t)),
		WithRetryObserver(func(agent.RetryEvent) { cancel() }))

	_, err := a.Decide(ctx, testSnapshot(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.calls(), 1)
}
