package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/session"
)

type NameRequest struct {
	Name string `json:"name"`
}

type NameResponse struct {
	Correct bool         `json:"correct"`
	Outcome hunt.Outcome `json:"outcome"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type AnswerResponse struct {
	Correct       bool             `json:"correct"`
	Outcome       hunt.Outcome     `json:"outcome"`
	PointsAwarded int              `json:"pointsAwarded"`
	GameComplete  bool             `json:"gameComplete"`
	FinalStats    *hunt.FinalStats `json:"finalStats,omitempty"`
}

// writeOutcomeError reports outcomes that are request errors rather than
// wrong guesses. It returns false when the outcome should be sent as a
// normal response.
func writeOutcomeError(w http.ResponseWriter, o hunt.Outcome, field string) bool {
	switch o {
	case hunt.MissingInput:
		writeError(w, http.StatusBadRequest, field+" is required")
	case hunt.NoCurrentLocation:
		writeError(w, http.StatusConflict, "no current location")
	default:
		return false
	}
	return true
}

func handleName(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := games.SubmitName(r.Context(), gameFrom(r), req.Name)
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		if writeOutcomeError(w, res.Outcome, "name") {
			return
		}
		writeJSON(w, http.StatusOK, NameResponse{Correct: res.Correct(), Outcome: res.Outcome})
	}
}

func handleAnswer(logger *slog.Logger, games *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := games.SubmitAnswer(r.Context(), gameFrom(r), req.Answer)
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		if writeOutcomeError(w, res.Outcome, "answer") {
			return
		}
		writeJSON(w, http.StatusOK, AnswerResponse{
			Correct:       res.Correct(),
			Outcome:       res.Outcome,
			PointsAwarded: res.Points,
			GameComplete:  res.GameComplete,
			FinalStats:    res.FinalStats,
		})
	}
}
