package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/treasurehunt/internal/session"
)

type StartResponse struct {
	Started bool          `json:"started"`
	State   session.State `json:"state"`
}

type AdvanceResponse struct {
	Advanced bool          `json:"advanced"`
	State    session.State `json:"state"`
}

type TimerResponse struct {
	Changed bool          `json:"changed"`
	State   session.State `json:"state"`
}

// respondWithState runs op and replies with its flag and the fresh state.
func respondWithState(w http.ResponseWriter, r *http.Request, logger *slog.Logger, games *session.Manager,
	op func(context.Context, string) (bool, error), wrap func(bool, session.State) any,
) {
	id := gameFrom(r)
	ok, err := op(r.Context(), id)
	if err != nil {
		writeGameError(w, logger, err)
		return
	}
	st, err := games.State(r.Context(), id)
	if err != nil {
		writeGameError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wrap(ok, st))
}

func handleStart(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithState(w, r, logger, games, games.Start, func(ok bool, st session.State) any {
			return StartResponse{Started: ok, State: st}
		})
	}
}

func handleAdvance(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithState(w, r, logger, games, games.Advance, func(ok bool, st session.State) any {
			return AdvanceResponse{Advanced: ok, State: st}
		})
	}
}

// handleTimer serves pause and resume.
func handleTimer(logger *slog.Logger, games *session.Manager,
	op func(*session.Manager, context.Context, string) (bool, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call := func(ctx context.Context, id string) (bool, error) { return op(games, ctx, id) }
		respondWithState(w, r, logger, games, call, func(ok bool, st session.State) any {
			return TimerResponse{Changed: ok, State: st}
		})
	}
}
