package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felkru/farkle/cmd/farkle/shared"
	"github.com/felkru/farkle/internal/agent/greedy"
	"github.com/felkru/farkle/internal/agent/remote"
)

// ServeAgentCmd serves the greedy strategy so remote players can be tried locally
type ServeAgentCmd struct {
	Addr      string        `default:":8090" help:"Listen address"`
	ThinkTime time.Duration `default:"0s" help:"Pause before answering"`
	Debug     bool          `help:"Enable debug logging"`
	JSON      bool          `name:"json" help:"Log as JSON"`
}

func (c *ServeAgentCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.JSON {
		logger = shared.SetupStructuredLogger(c.Debug)
	}
	ctx, stop := shared.WithShutdown(context.Background(), logger, "agent server")
	defer stop()

	bot := greedy.New(logger, greedy.WithThinkTime(c.ThinkTime))
	mux := http.NewServeMux()
	mux.Handle("/move", remote.NewHandler(bot, logger))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Remote agent listening", "addr", c.Addr, "endpoint", "/move")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
