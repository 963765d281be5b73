package store

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// MemoryStore keeps everything in process. Snapshots are stored encoded so
// that callers never share slices with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	progress  map[string][]byte
	completed []hunt.CompletedGame
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{progress: make(map[string][]byte)}
}

func (m *MemoryStore) SaveProgress(_ context.Context, gameID string, snap hunt.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.progress[gameID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadProgress(_ context.Context, gameID string) (hunt.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.progress[gameID]
	m.mu.RUnlock()
	if !ok {
		return hunt.Snapshot{}, ErrNotFound
	}
	return hunt.DecodeSnapshot(data)
}

func (m *MemoryStore) DeleteProgress(_ context.Context, gameID string) error {
	m.mu.Lock()
	delete(m.progress, gameID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SaveCompleted(_ context.Context, rec hunt.CompletedGame) error {
	rec.GroupMembers = slices.Clone(rec.GroupMembers)
	rec.CompletedLocations = slices.Clone(rec.CompletedLocations)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.completed {
		if have.ID == rec.ID {
			return nil
		}
	}
	m.completed = append(m.completed, rec)
	return nil
}

func (m *MemoryStore) Leaderboard(_ context.Context, typ hunt.PlayerType, limit int) ([]hunt.CompletedGame, error) {
	m.mu.RLock()
	var out []hunt.CompletedGame
	for _, rec := range m.completed {
		if rec.PlayerType == typ {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b hunt.CompletedGame) int {
		if c := cmp.Compare(b.CalculatedScore, a.CalculatedScore); c != 0 {
			return c
		}
		return a.CompletedAt.Compare(b.CompletedAt)
	})
	if n := leaderboardLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
