package session

import (
	"context"
	"time"

	"github.com/playperu/treasurehunt/internal/stopwatch"
)

// Run checkpoints running games every AutosaveInterval and evicts games
// idle for longer than IdleTimeout. When ctx is cancelled it saves every
// live game once more and returns.
func (m *Manager) Run(ctx context.Context) error {
	t := time.NewTicker(m.opts.AutosaveInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Flush(context.WithoutCancel(ctx))
			return nil
		case <-t.C:
			m.Autosave(ctx)
		}
	}
}

// Autosave runs one autosave pass.
func (m *Manager) Autosave(ctx context.Context) {
	now := m.opts.Clock.Now()
	saved, evicted := 0, 0

	for _, s := range m.live() {
		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			continue
		}
		idle := now.Sub(s.lastSeen) > m.opts.IdleTimeout
		if !s.finished() && (idle || s.engine.Timer().Status() == stopwatch.Running) {
			m.checkpoint(ctx, s)
			saved++
		}
		if idle {
			s.evicted = true
			m.syncTicker(s)
			m.mu.Lock()
			if m.sessions[s.id] == s {
				delete(m.sessions, s.id)
			}
			m.mu.Unlock()
			evicted++
		}
		s.mu.Unlock()
	}

	m.mu.Lock()
	for id, at := range m.abandoned {
		if now.Sub(at) > m.opts.AutosaveInterval {
			delete(m.abandoned, id)
		}
	}
	m.mu.Unlock()

	if saved > 0 || evicted > 0 {
		m.logger.Debug("autosave", "saved", saved, "evicted", evicted)
	}
}

// Flush checkpoints every unfinished live game and stops all tickers.
func (m *Manager) Flush(ctx context.Context) {
	for _, s := range m.live() {
		s.mu.Lock()
		if !s.evicted && !s.finished() {
			m.checkpoint(ctx, s)
		}
		if s.ticker != nil {
			s.ticker.Stop()
			s.ticker = nil
		}
		s.mu.Unlock()
	}
	m.logger.Info("sessions flushed")
}

func (m *Manager) live() []*session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
