package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/treasurehunt/internal/hints"
	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/session"
)

type TextHintResponse struct {
	Content     string `json:"content"`
	CostCharged int    `json:"costCharged"`
	Score       int    `json:"score"`
}

type MapHintResponse struct {
	Text         string `json:"text"`
	LocationName string `json:"locationName"`
	CostCharged  int    `json:"costCharged"`
	Score        int    `json:"score"`
}

func costCharged(h hunt.Hint) int {
	if !h.Charged {
		return 0
	}
	return h.Tier.Cost()
}

func handleTextHint(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, score, err := games.UseHint(r.Context(), gameFrom(r), hints.Text)
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TextHintResponse{
			Content:     h.Text,
			CostCharged: costCharged(h),
			Score:       score,
		})
	}
}

func handleMapHint(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, score, err := games.UseHint(r.Context(), gameFrom(r), hints.Map)
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MapHintResponse{
			Text:         h.Text,
			LocationName: h.LocationName,
			CostCharged:  costCharged(h),
			Score:        score,
		})
	}
}
