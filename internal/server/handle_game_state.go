package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/treasurehunt/internal/session"
)

// handleGameState restores the game on first access, so a client that lost
// its connection picks up where it left off.
func handleGameState(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := games.State(r.Context(), gameFrom(r))
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
