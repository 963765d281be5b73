package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/migrations"
)

// SQLiteStore keeps snapshots and completed games as JSONB documents, with
// the columns the leaderboard filters and sorts on pulled out.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore migrates db and wraps it. The store owns db from then on.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := migrations.Run(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveProgress(ctx context.Context, gameID string, snap hunt.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_progress (id, player_type, data, updated_at)
		VALUES (?, ?, jsonb(?), ?)
		ON CONFLICT(id) DO UPDATE SET
			player_type = excluded.player_type,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, gameID, snap.PlayerType, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("saving progress %s: %w", gameID, err)
	}
	return nil
}

func (s *SQLiteStore) LoadProgress(ctx context.Context, gameID string) (hunt.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM game_progress WHERE id = ?`, gameID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return hunt.Snapshot{}, fmt.Errorf("loading progress %s: %w", gameID, err)
	}
	return hunt.DecodeSnapshot([]byte(data))
}

func (s *SQLiteStore) DeleteProgress(ctx context.Context, gameID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM game_progress WHERE id = ?`, gameID); err != nil {
		return fmt.Errorf("deleting progress %s: %w", gameID, err)
	}
	return nil
}

func (s *SQLiteStore) SaveCompleted(ctx context.Context, rec hunt.CompletedGame) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding completed game: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO completed_games (id, session_id, player_type, calculated_score, data, completed_at)
		VALUES (?, ?, ?, ?, jsonb(?), ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.SessionID, string(rec.PlayerType), rec.CalculatedScore, string(data),
		rec.CompletedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving completed game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, typ hunt.PlayerType, limit int) ([]hunt.CompletedGame, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT json(data)
		FROM completed_games
		WHERE player_type = ?
		ORDER BY calculated_score DESC, completed_at
		LIMIT ?
	`, string(typ), leaderboardLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []hunt.CompletedGame
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec hunt.CompletedGame
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding completed game: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

const timeLayout = "2006-01-02T15:04:05.000Z"

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
