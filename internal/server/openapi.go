package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/treasurehunt/internal/handler/health"
	"github.com/playperu/treasurehunt/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type operation struct {
	method, path string
	summary      string
	description  string
	req          any
	resp         any
	status       int
	errors       []int
}

var operations = []operation{
	{
		method:      http.MethodGet,
		path:        "/healthz",
		summary:     "Health check",
		description: "Reports the health of the game store and, when configured, the Redis progress cache. A failing cache degrades the report without failing it.",
		resp:        health.Report{},
		status:      http.StatusOK,
		errors:      []int{http.StatusServiceUnavailable},
	},
	{
		method:      http.MethodPost,
		path:        "/api/games",
		summary:     "Create game",
		description: "Starts a new game at the starting point and returns the bearer token for it. Group names are comma-separated.",
		req:         CreateGameRequest{},
		resp:        CreateGameResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest},
	},
	{
		method:      http.MethodDelete,
		path:        "/api/game",
		summary:     "Abandon game",
		description: "Deletes the game and its saved progress. Requires the game token.",
		status:      http.StatusNoContent,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/api/game/state",
		summary:     "Game state",
		description: "Returns the visible game state. After a disconnect the game is restored from saved progress. Requires the game token.",
		resp:        session.State{},
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/start",
		summary:     "Start game",
		description: "Starts the clock and moves to the first location.",
		resp:        StartResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/name",
		summary:     "Submit location name",
		description: "Checks a guess of the current location's name. A correct name reveals the question.",
		req:         NameRequest{},
		resp:        NameResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/answer",
		summary:     "Submit answer",
		description: "Checks an answer to the current question. The first correct answer at a location scores 100 points. Answering the last location finishes the game.",
		req:         AnswerRequest{},
		resp:        AnswerResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/hints/text",
		summary:     "Reveal text hint",
		description: "Reveals the text hint for the current location. Costs 30 points the first time.",
		resp:        TextHintResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/hints/map",
		summary:     "Reveal map hint",
		description: "Reveals the map hint for the current location. Costs 50 points the first time.",
		resp:        MapHintResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/game/advance",
		summary:     "Advance",
		description: "Moves to the next location. Reports advanced=false at the last location.",
		resp:        AdvanceResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:  http.MethodPost,
		path:    "/api/game/pause",
		summary: "Pause clock",
		resp:    TimerResponse{},
		status:  http.StatusOK,
		errors:  []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:  http.MethodPost,
		path:    "/api/game/resume",
		summary: "Resume clock",
		resp:    TimerResponse{},
		status:  http.StatusOK,
		errors:  []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodGet,
		path:        "/api/game/events",
		summary:     "Game events",
		description: "Server-sent events for one game: score, time, name_confirmed, answer_correct, advanced and completed. Pass the game token as ?token=.",
		status:      http.StatusOK,
		errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/api/leaderboard",
		summary:     "Leaderboard",
		description: "Best finished games of one player type, highest calculated score first.",
		req:         LeaderboardQuery{},
		resp:        LeaderboardResponse{},
		status:      http.StatusOK,
		errors:      []int{http.StatusBadRequest},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Treasure Hunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the treasure hunt game. Player routes take the game token as a bearer token.")

	for _, op := range operations {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		switch {
		case op.path == "/api/game/events":
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status), openapi.WithContentType("text/event-stream"))
		case op.resp == nil:
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status))
		default:
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		}
		for _, status := range op.errors {
			if status == http.StatusServiceUnavailable {
				oc.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(status))
				continue
			}
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
