package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/felkru/farkle/internal/config"
	"github.com/felkru/farkle/internal/game"
	"github.com/felkru/farkle/internal/randutil"
	"github.com/felkru/farkle/internal/spectate"
)

// loadConfig reads and validates a game file. A command line seed wins over
// the file's.
func loadConfig(path string, seed *int64) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if seed != nil {
		cfg.Game.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config %s: %w", path, err)
	}
	return cfg, nil
}

// rollers returns a factory handing each new game its own die. Game n uses
// seed+n so a session can be replayed.
func rollers(seed int64, logger *log.Logger) (func() game.Roller, error) {
	if seed == 0 {
		s, err := randutil.NewSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}
	logger.Info("Using seed", "seed", seed)

	var n atomic.Int64
	return func() game.Roller {
		return randutil.NewD6(seed + n.Add(1) - 1)
	}, nil
}

// startSpectators serves a spectator feed on addr until ctx is done.
func startSpectators(ctx context.Context, addr string, logger *log.Logger) (*spectate.Hub, error) {
	hub := spectate.NewHub(logger)
	mux := http.NewServeMux()
	mux.Handle("/spectate", hub)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for spectators: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Spectator server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Spectator feed listening", "url", "ws://"+ln.Addr().String()+"/spectate")
	return hub, nil
}
