package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/treasurehunt/internal/session"
)

func handleEvents(logger *slog.Logger, games *session.Manager, tokens *Tokens, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = bearerToken(r)
		}
		gameID, err := tokens.GameID(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing game token")
			return
		}

		// Restores the game so its clock ticker runs while the stream is open.
		st, err := games.State(r.Context(), gameID)
		if err != nil {
			writeGameError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)

		w.Write(sseFrame(session.Event{
			Type:           session.EventTime,
			Score:          st.Score,
			ElapsedSeconds: st.ElapsedSeconds,
			Time:           st.Time,
		}))
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case frame := <-ch:
				w.Write(frame)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
