package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/session"
)

type LeaderboardQuery struct {
	Type  string `query:"type" enum:"solo,group" default:"solo"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"10"`
}

type LeaderboardEntry struct {
	Rank            int                      `json:"rank"`
	PlayerName      string                   `json:"playerName"`
	GroupMembers    []string                 `json:"groupMembers"`
	FinalScore      int                      `json:"finalScore"`
	FinalTime       string                   `json:"finalTime"`
	FinalSeconds    int64                    `json:"finalSeconds"`
	CalculatedScore int                      `json:"calculatedScore"`
	Completed       []hunt.CompletedLocation `json:"completedLocations"`
	CompletedAt     time.Time                `json:"completedAt"`
}

type LeaderboardResponse struct {
	Type    hunt.PlayerType    `json:"type"`
	Entries []LeaderboardEntry `json:"entries"`
}

func handleLeaderboard(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		typ := hunt.Solo
		switch v := q.Get("type"); hunt.PlayerType(v) {
		case "", hunt.Solo:
		case hunt.Group:
			typ = hunt.Group
		default:
			writeError(w, http.StatusBadRequest, "type must be solo or group")
			return
		}

		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		recs, err := games.Leaderboard(r.Context(), typ, limit)
		if err != nil {
			logger.Error("loading leaderboard failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := LeaderboardResponse{Type: typ, Entries: make([]LeaderboardEntry, 0, len(recs))}
		for i, g := range recs {
			resp.Entries = append(resp.Entries, LeaderboardEntry{
				Rank:            i + 1,
				PlayerName:      g.PlayerName,
				GroupMembers:    g.GroupMembers,
				FinalScore:      g.FinalScore,
				FinalTime:       hunt.FormatClock(g.FinalTime),
				FinalSeconds:    g.FinalTime,
				CalculatedScore: g.CalculatedScore,
				Completed:       g.CompletedLocations,
				CompletedAt:     g.CompletedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
