// Package session keeps live games in memory, restores them from the
// progress store on demand and archives them when they finish.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/treasurehunt/internal/hints"
	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/stopwatch"
	"github.com/playperu/treasurehunt/internal/store"
)

var (
	ErrNotFound   = errors.New("game not found")
	ErrFinished   = errors.New("game already finished")
	ErrNoLocation = errors.New("no current location")
)

// Options tunes a Manager. Zero fields take defaults.
type Options struct {
	StartingScore    int
	PauseGapPolicy   stopwatch.PauseGapPolicy
	AutosaveInterval time.Duration
	// IdleTimeout is how long an untouched session stays in memory.
	IdleTimeout  time.Duration
	TickInterval time.Duration
	Clock        stopwatch.Clock
}

func (o *Options) setDefaults() {
	if o.StartingScore <= 0 {
		o.StartingScore = hunt.DefaultStartingScore
	}
	if o.PauseGapPolicy == "" {
		o.PauseGapPolicy = stopwatch.DiscardGap
	}
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = 30 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 72 * time.Hour
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.Clock == nil {
		o.Clock = stopwatch.SystemClock
	}
}

// Manager owns every live game. Each game has one writer at a time.
type Manager struct {
	catalog  *hunt.Catalog
	progress store.ProgressStore
	results  store.ResultStore
	events   Publisher
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	sessions map[string]*session

	// abandoned holds recently abandoned game IDs so a restore that read
	// the snapshot before it was deleted does not bring the game back.
	abandoned map[string]time.Time
}

type session struct {
	id string

	mu       sync.Mutex
	engine   *hunt.Engine
	final    *hunt.FinalStats
	lastSeen time.Time
	ticker   *stopwatch.Ticker
	evicted  bool
}

func (s *session) finished() bool { return s.final != nil }

// NewManager wires a manager to its stores. events may be nil.
func NewManager(catalog *hunt.Catalog, progress store.ProgressStore, results store.ResultStore,
	events Publisher, logger *slog.Logger, opts Options,
) *Manager {
	opts.setDefaults()
	if events == nil {
		events = nopPublisher{}
	}
	return &Manager{
		catalog:   catalog,
		progress:  progress,
		results:   results,
		events:    events,
		logger:    logger,
		opts:      opts,
		sessions:  make(map[string]*session),
		abandoned: make(map[string]time.Time),
	}
}

func (m *Manager) newSession(id string) *session {
	s := &session{id: id, lastSeen: m.opts.Clock.Now()}
	s.engine = hunt.New(m.catalog,
		hunt.WithStartingScore(m.opts.StartingScore),
		hunt.WithClock(m.opts.Clock),
		hunt.WithPauseGapPolicy(m.opts.PauseGapPolicy),
		hunt.OnScore(func(score int) {
			m.events.Publish(id, Event{Type: EventScore, Score: score})
		}),
		hunt.OnTime(func(secs int64) {
			m.events.Publish(id, Event{
				Type:           EventTime,
				Score:          s.engine.Score(),
				ElapsedSeconds: secs,
				Time:           hunt.FormatClock(secs),
			})
		}),
	)
	return s
}

// Create starts a new game for player and persists it.
func (m *Manager) Create(ctx context.Context, player hunt.Player, personalMessage string) (State, error) {
	id := uuid.NewString()
	s := m.newSession(id)
	s.engine.SetPlayer(player)
	s.engine.SetPersonalMessage(personalMessage)

	if err := m.progress.SaveProgress(ctx, id, m.snapshot(s)); err != nil {
		return State{}, fmt.Errorf("saving new game: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("game created", "game_id", id, "player_type", player.Type)
	return stateOf(id, s.engine, nil), nil
}

// lookup returns the live session for id, restoring it from the progress
// store if needed. The session is returned locked.
func (m *Manager) lookup(ctx context.Context, id string) (*session, error) {
	for {
		m.mu.Lock()
		s, ok := m.sessions[id]
		m.mu.Unlock()

		if !ok {
			var err error
			if s, err = m.restore(ctx, id); err != nil {
				return nil, err
			}
		}

		s.mu.Lock()
		if !s.evicted {
			return s, nil
		}
		s.mu.Unlock()
	}
}

func (m *Manager) restore(ctx context.Context, id string) (*session, error) {
	snap, err := m.progress.LoadProgress(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading game %s: %w", id, err)
	}

	s := m.newSession(id)
	s.engine.Restore(snap)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, gone := m.abandoned[id]; gone {
		return nil, ErrNotFound
	}
	if live, ok := m.sessions[id]; ok {
		return live, nil
	}
	m.sessions[id] = s
	m.logger.Info("game restored", "game_id", id, "index", s.engine.Index(), "score", s.engine.Score())
	return s, nil
}

// Do runs fn against the game's engine while holding its lock. A changed
// game is checkpointed afterwards; a game whose final location has been
// answered is archived. Finished games reject Do with ErrFinished.
func (m *Manager) Do(ctx context.Context, id string, fn func(e *hunt.Engine) error) error {
	return m.do(ctx, id, func(s *session) error { return fn(s.engine) })
}

func (m *Manager) do(ctx context.Context, id string, fn func(s *session) error) error {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	// A snapshot saved after the last answer but before archiving.
	if !s.finished() && s.engine.IsComplete() {
		m.finish(ctx, s)
	}
	if s.finished() {
		return ErrFinished
	}

	before := fingerprint(s.engine)
	err = fn(s)
	s.lastSeen = m.opts.Clock.Now()

	switch {
	case s.finished():
	case s.engine.IsComplete():
		m.finish(ctx, s)
	case fingerprint(s.engine) != before:
		m.checkpoint(ctx, s)
	}
	m.syncTicker(s)
	return err
}

// State returns what the player can currently see.
func (m *Manager) State(ctx context.Context, id string) (State, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	if !s.finished() && s.engine.IsComplete() {
		m.finish(ctx, s)
	}
	s.lastSeen = m.opts.Clock.Now()
	m.syncTicker(s)
	return stateOf(id, s.engine, s.final), nil
}

// Start starts the clock and moves the team to the first location.
func (m *Manager) Start(ctx context.Context, id string) (bool, error) {
	var started bool
	err := m.do(ctx, id, func(s *session) error {
		if started = s.engine.Start(); started {
			m.publishAdvanced(s)
		}
		return nil
	})
	return started, err
}

// SubmitName checks a guess of the current location's name.
func (m *Manager) SubmitName(ctx context.Context, id, text string) (hunt.Result, error) {
	var r hunt.Result
	err := m.do(ctx, id, func(s *session) error {
		r = s.engine.SubmitLocationName(text)
		if r.Correct() {
			loc, _ := s.engine.Current()
			m.events.Publish(id, Event{Type: EventNameConfirmed, Score: s.engine.Score(), LocationID: loc.ID})
		}
		return nil
	})
	return r, err
}

// AnswerResult is the outcome of SubmitAnswer.
type AnswerResult struct {
	hunt.Result
	GameComplete bool
	FinalStats   *hunt.FinalStats
}

// SubmitAnswer checks an answer to the current question. Answering the
// last location finishes and archives the game.
func (m *Manager) SubmitAnswer(ctx context.Context, id, text string) (AnswerResult, error) {
	var res AnswerResult
	err := m.do(ctx, id, func(s *session) error {
		loc, _ := s.engine.Current()
		res.Result = s.engine.SubmitAnswer(text)
		if res.Correct() {
			m.events.Publish(id, Event{
				Type:       EventAnswerCorrect,
				Score:      s.engine.Score(),
				LocationID: loc.ID,
				Points:     res.Points,
			})
		}
		if s.engine.IsComplete() {
			m.finish(ctx, s)
			res.GameComplete = true
			res.FinalStats = s.final
		}
		return nil
	})
	return res, err
}

// UseHint reveals a hint for the current location and returns it with the
// score after any charge.
func (m *Manager) UseHint(ctx context.Context, id string, tier hints.Tier) (hunt.Hint, int, error) {
	var (
		h     hunt.Hint
		score int
	)
	err := m.do(ctx, id, func(s *session) error {
		var ok bool
		if h, ok = s.engine.UseHint(tier); !ok {
			return ErrNoLocation
		}
		score = s.engine.Score()
		return nil
	})
	return h, score, err
}

// Advance moves the team to the next location.
func (m *Manager) Advance(ctx context.Context, id string) (bool, error) {
	var advanced bool
	err := m.do(ctx, id, func(s *session) error {
		if advanced = s.engine.Advance(); advanced {
			m.publishAdvanced(s)
		}
		return nil
	})
	return advanced, err
}

// Pause stops the clock, for example while the team reads about a place.
func (m *Manager) Pause(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := m.do(ctx, id, func(s *session) error {
		ok = s.engine.Timer().Pause()
		return nil
	})
	return ok, err
}

// Resume restarts a paused clock.
func (m *Manager) Resume(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := m.do(ctx, id, func(s *session) error {
		ok = s.engine.Timer().Resume()
		return nil
	})
	return ok, err
}

// Abandon drops a game and its stored progress. The stored progress is
// deleted while the session is still locked, so no concurrent request can
// restore the game in between.
func (m *Manager) Abandon(ctx context.Context, id string) error {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.evicted = true
	m.syncTicker(s)
	m.mu.Lock()
	if m.sessions[id] == s {
		delete(m.sessions, id)
	}
	m.abandoned[id] = m.opts.Clock.Now()
	m.mu.Unlock()

	if err := m.progress.DeleteProgress(ctx, id); err != nil {
		return fmt.Errorf("deleting game %s: %w", id, err)
	}
	m.logger.Info("game abandoned", "game_id", id)
	return nil
}

// Leaderboard returns the best finished games of one player type.
func (m *Manager) Leaderboard(ctx context.Context, typ hunt.PlayerType, limit int) ([]hunt.CompletedGame, error) {
	return m.results.Leaderboard(ctx, typ, limit)
}

// Live returns the number of games held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) publishAdvanced(s *session) {
	loc, _ := s.engine.Current()
	m.events.Publish(s.id, Event{
		Type:       EventAdvanced,
		Score:      s.engine.Score(),
		Index:      s.engine.Index(),
		LocationID: loc.ID,
	})
}

// finish stops the clock, archives the result and drops the in-progress
// snapshot. If either step fails the final snapshot is kept so the next
// restore can try again; the record ID is the game ID, so a retry never
// adds a second leaderboard entry.
func (m *Manager) finish(ctx context.Context, s *session) {
	e := s.engine
	e.Timer().Stop()
	stats := e.FinalStats()
	s.final = &stats

	rec := e.Record(s.id, m.opts.Clock.Now())

	if err := m.results.SaveCompleted(ctx, rec); err != nil {
		m.logger.Error("archiving completed game failed", "game_id", s.id, "error", err)
		m.checkpoint(ctx, s)
	} else if err := m.progress.DeleteProgress(ctx, s.id); err != nil {
		m.logger.Error("deleting finished game progress failed", "game_id", s.id, "error", err)
		m.checkpoint(ctx, s)
	}

	m.events.Publish(s.id, Event{
		Type:           EventCompleted,
		Score:          stats.Score,
		ElapsedSeconds: stats.ElapsedSeconds,
		Time:           stats.Time,
		FinalStats:     &stats,
	})
	m.logger.Info("game completed",
		"game_id", s.id,
		"score", stats.Score,
		"elapsed_s", stats.ElapsedSeconds,
		"calculated_score", rec.CalculatedScore,
	)
}

func (m *Manager) snapshot(s *session) hunt.Snapshot {
	snap := s.engine.Snapshot()
	snap.UpdatedAt = m.opts.Clock.Now().UnixMilli()
	return snap
}

// checkpoint saves the session. Failures are logged; the game carries on
// from memory.
func (m *Manager) checkpoint(ctx context.Context, s *session) {
	if err := m.progress.SaveProgress(ctx, s.id, m.snapshot(s)); err != nil {
		m.logger.Error("checkpoint failed", "game_id", s.id, "error", err)
	}
}

// syncTicker runs a per-second time ticker while the clock is running.
// Callers hold s.mu.
func (m *Manager) syncTicker(s *session) {
	running := !s.evicted && !s.finished() && s.engine.Timer().Status() == stopwatch.Running
	switch {
	case running && s.ticker == nil:
		s.ticker = stopwatch.Every(m.opts.TickInterval, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.engine.Timer().Status() == stopwatch.Running {
				s.engine.Timer().Poll()
			}
		})
	case !running && s.ticker != nil:
		s.ticker.Stop()
		s.ticker = nil
	}
}

// fingerprint covers everything that warrants a checkpoint: position,
// score, sets, player and clock status. Elapsed time alone does not.
func fingerprint(e *hunt.Engine) string {
	snap := e.Snapshot()
	snap.ElapsedTime = 0
	snap.UpdatedAt = 0
	b, _ := json.Marshal(snap)
	return string(b)
}
