package remote

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/felkru/farkle/internal/agent"
)

// NewHandler serves the remote agent protocol backed by a local agent. It is
// the reference server for people writing their own endpoints: POST a game
// state, get a move.
func NewHandler(a agent.Agent, logger *log.Logger) http.Handler {
	logger = logger.WithPrefix("agent-server")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var gs agent.GameState
		if err := json.NewDecoder(io.LimitReader(r.Body, maxMoveBody)).Decode(&gs); err != nil {
			http.Error(w, "invalid game state: "+err.Error(), http.StatusBadRequest)
			return
		}
		snap, err := gs.Snapshot()
		if err != nil {
			http.Error(w, "invalid game state: "+err.Error(), http.StatusBadRequest)
			return
		}
		if gs.LastError != "" {
			logger.Warn("Previous move was refused", "reason", gs.LastError)
		}

		move, err := a.Decide(r.Context(), snap, nil)
		if err != nil {
			logger.Error("Agent failed", "error", err)
			http.Error(w, "agent failed", http.StatusInternalServerError)
			return
		}

		logger.Info("Answered", "player", snap.ActivePlayer().Name, "move", move)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(agent.NewMoveResponse(move)); err != nil {
			logger.Error("Failed to write response", "error", err)
		}
	})
}
