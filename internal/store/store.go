// Package store persists in-progress snapshots and completed games. The
// engine never sees these types; the session manager hands it plain
// snapshots.
package store

import (
	"context"
	"errors"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// ErrNotFound is returned when a game has no stored snapshot.
var ErrNotFound = errors.New("not found")

// DefaultLeaderboardLimit is used when a caller asks for a non-positive
// number of entries.
const DefaultLeaderboardLimit = 10

// ProgressStore keeps the latest snapshot of each unfinished game.
type ProgressStore interface {
	SaveProgress(ctx context.Context, gameID string, snap hunt.Snapshot) error
	LoadProgress(ctx context.Context, gameID string) (hunt.Snapshot, error)
	DeleteProgress(ctx context.Context, gameID string) error
}

// ResultStore archives finished games and ranks them.
type ResultStore interface {
	// SaveCompleted stores rec. Saving a record whose ID is already stored
	// succeeds and leaves the stored record unchanged.
	SaveCompleted(ctx context.Context, rec hunt.CompletedGame) error
	// Leaderboard returns the best games of one player type, highest
	// calculated score first.
	Leaderboard(ctx context.Context, typ hunt.PlayerType, limit int) ([]hunt.CompletedGame, error)
}

// Store is a backend that keeps both.
type Store interface {
	ProgressStore
	ResultStore
	Ping(ctx context.Context) error
	Close() error
}

func leaderboardLimit(n int) int {
	if n <= 0 {
		return DefaultLeaderboardLimit
	}
	return min(n, 100)
}
