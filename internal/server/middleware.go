package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyGame ctxKey = iota

// gameMiddleware resolves the bearer token to a game ID.
func gameMiddleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gameID, err := tokens.GameID(bearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing game token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyGame, gameID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func gameFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyGame).(string)
}
