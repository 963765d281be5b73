package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/session"
)

type CreateGameRequest struct {
	PlayerName string `json:"playerName"`
	PlayerType string `json:"playerType" enum:"solo,group"`
	// GroupNames is a comma-separated list of group members.
	GroupNames      string `json:"groupNames,omitempty"`
	PersonalMessage string `json:"personalMessage,omitempty"`
}

type CreateGameResponse struct {
	GameID string        `json:"gameId"`
	Token  string        `json:"token"`
	State  session.State `json:"state"`
}

func handleCreateGame(logger *slog.Logger, games *session.Manager, tokens *Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.PlayerName) == "" {
			writeError(w, http.StatusBadRequest, "playerName is required")
			return
		}
		switch hunt.PlayerType(req.PlayerType) {
		case "", hunt.Solo, hunt.Group:
		default:
			writeError(w, http.StatusBadRequest, "playerType must be solo or group")
			return
		}

		player := hunt.NewPlayer(req.PlayerName, hunt.PlayerType(req.PlayerType), req.GroupNames)
		st, err := games.Create(r.Context(), player, strings.TrimSpace(req.PersonalMessage))
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		token, err := tokens.Issue(st.GameID)
		if err != nil {
			logger.Error("issuing token failed", "game_id", st.GameID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: st.GameID, Token: token, State: st})
	}
}

func handleAbandon(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := games.Abandon(r.Context(), gameFrom(r)); err != nil {
			writeGameError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
