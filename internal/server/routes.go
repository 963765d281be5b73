package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/treasurehunt/internal/session"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	games, tokens, broker := deps.Games, deps.Tokens, deps.Broker

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Treasure Hunt API", "/openapi.json", "/docs"))

	r.Post("/api/games", handleCreateGame(logger, games, tokens))
	r.Get("/api/leaderboard", handleLeaderboard(logger, games))

	r.Route("/api/game", func(r chi.Router) {
		// EventSource cannot set headers, so the stream takes ?token=.
		r.Get("/events", handleEvents(logger, games, tokens, broker))

		r.Group(func(r chi.Router) {
			r.Use(gameMiddleware(tokens))
			r.Delete("/", handleAbandon(logger, games))
			r.Get("/state", handleGameState(logger, games))
			r.Post("/start", handleStart(logger, games))
			r.Post("/name", handleName(logger, games))
			r.Post("/answer", handleAnswer(logger, games))
			r.Post("/hints/text", handleTextHint(logger, games))
			r.Post("/hints/map", handleMapHint(logger, games))
			r.Post("/advance", handleAdvance(logger, games))
			r.Post("/pause", handleTimer(logger, games, (*session.Manager).Pause))
			r.Post("/resume", handleTimer(logger, games, (*session.Manager).Resume))
		})
	})
}
