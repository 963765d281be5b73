package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// Tiered writes snapshots through a fast cache to a durable primary. Reads
// try the cache first and refill it from the primary on a miss. Cache
// failures are logged and never fail the call.
type Tiered struct {
	Cache   ProgressStore
	Primary ProgressStore
	Logger  *slog.Logger
}

var _ ProgressStore = (*Tiered)(nil)

func (t *Tiered) SaveProgress(ctx context.Context, gameID string, snap hunt.Snapshot) error {
	if err := t.Primary.SaveProgress(ctx, gameID, snap); err != nil {
		return err
	}
	if err := t.Cache.SaveProgress(ctx, gameID, snap); err != nil {
		t.Logger.Warn("progress cache write failed", "game_id", gameID, "error", err)
	}
	return nil
}

func (t *Tiered) LoadProgress(ctx context.Context, gameID string) (hunt.Snapshot, error) {
	snap, err := t.Cache.LoadProgress(ctx, gameID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, ErrNotFound) {
		t.Logger.Warn("progress cache read failed", "game_id", gameID, "error", err)
	}

	snap, err = t.Primary.LoadProgress(ctx, gameID)
	if err != nil {
		return hunt.Snapshot{}, err
	}
	if err := t.Cache.SaveProgress(ctx, gameID, snap); err != nil {
		t.Logger.Warn("progress cache refill failed", "game_id", gameID, "error", err)
	}
	return snap, nil
}

func (t *Tiered) DeleteProgress(ctx context.Context, gameID string) error {
	if err := t.Cache.DeleteProgress(ctx, gameID); err != nil {
		t.Logger.Warn("progress cache delete failed", "game_id", gameID, "error", err)
	}
	return t.Primary.DeleteProgress(ctx, gameID)
}
