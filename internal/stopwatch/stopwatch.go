// Package stopwatch measures play time across pauses and across process
// restarts. A Tracker is not safe for concurrent use.
package stopwatch

import (
	"fmt"
	"time"
)

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Status is the lifecycle position of a Tracker.
type Status string

const (
	NotStarted Status = "not_started"
	Running    Status = "running"
	Paused     Status = "paused"
	Stopped    Status = "stopped"
)

// PauseGapPolicy decides what happens to the time a paused game spent
// unloaded (player disconnected) when it is restored.
type PauseGapPolicy string

const (
	// DiscardGap restarts the pause at restore time, so the disconnected
	// span is not recorded anywhere.
	DiscardGap PauseGapPolicy = "discard"
	// AccrueGap keeps the original pause instant, so the disconnected span
	// is added to the total pause time on the next resume.
	AccrueGap PauseGapPolicy = "accrue"
)

// ParsePauseGapPolicy parses a policy name.
func ParsePauseGapPolicy(s string) (PauseGapPolicy, error) {
	switch p := PauseGapPolicy(s); p {
	case DiscardGap, AccrueGap:
		return p, nil
	}
	return "", fmt.Errorf("unknown pause gap policy %q", s)
}

// UnmarshalText lets PauseGapPolicy be parsed from configuration.
func (p *PauseGapPolicy) UnmarshalText(b []byte) error {
	v, err := ParsePauseGapPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Tracker is a stopwatch that excludes paused time. Invalid transitions are
// ignored; callers may fire the same event twice.
type Tracker struct {
	clock    Clock
	status   Status
	start    time.Time
	pausedAt time.Time
	paused   time.Duration
	elapsed  int64

	// OnUpdate, if set, receives the elapsed seconds on every Poll.
	OnUpdate func(seconds int64)
}

// New returns a tracker in the NotStarted state. A nil clock means the
// system clock.
func New(clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	return &Tracker{clock: clock, status: NotStarted}
}

// Status returns the current lifecycle state.
func (t *Tracker) Status() Status { return t.status }

// Start begins timing. It only has an effect on a tracker that has never
// started.
func (t *Tracker) Start() bool {
	if t.status != NotStarted {
		return false
	}
	t.start = t.clock.Now()
	t.paused = 0
	t.elapsed = 0
	t.status = Running
	return true
}

// Pause freezes the elapsed count.
func (t *Tracker) Pause() bool {
	if t.status != Running {
		return false
	}
	now := t.clock.Now()
	t.elapsed = t.since(now)
	t.pausedAt = now
	t.status = Paused
	return true
}

// Resume continues timing after a Pause.
func (t *Tracker) Resume() bool {
	if t.status != Paused {
		return false
	}
	t.paused += t.clock.Now().Sub(t.pausedAt)
	t.pausedAt = time.Time{}
	t.status = Running
	return true
}

// Stop finalizes the elapsed count. Stopping a paused tracker does not
// count the open pause as play time.
func (t *Tracker) Stop() bool {
	switch t.status {
	case Running:
		t.elapsed = t.since(t.clock.Now())
	case Paused:
		t.paused += t.clock.Now().Sub(t.pausedAt)
		t.pausedAt = time.Time{}
	default:
		return false
	}
	t.status = Stopped
	return true
}

// Elapsed returns the whole seconds of play so far.
func (t *Tracker) Elapsed() int64 {
	if t.status == Running {
		t.elapsed = t.since(t.clock.Now())
	}
	return t.elapsed
}

// Poll recomputes the elapsed seconds and reports them to OnUpdate.
func (t *Tracker) Poll() int64 {
	s := t.Elapsed()
	if t.OnUpdate != nil {
		t.OnUpdate(s)
	}
	return s
}

// PauseTotal returns the accumulated paused time, excluding an open pause.
func (t *Tracker) PauseTotal() time.Duration { return t.paused }

func (t *Tracker) since(now time.Time) int64 {
	d := now.Sub(t.start) - t.paused
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// State is the persistable form of a Tracker. Instants are wall-clock
// values from the session that saved them and are only used for auditing
// and the AccrueGap policy; restoring never depends on them otherwise.
type State struct {
	Status         Status
	ElapsedSeconds int64
	PauseTotal     time.Duration
	StartedAt      *time.Time
	PausedAt       *time.Time
}

// Save captures the tracker for persistence.
func (t *Tracker) Save() State {
	s := State{
		Status:         t.status,
		ElapsedSeconds: t.Elapsed(),
		PauseTotal:     t.paused,
	}
	if t.status == Running || t.status == Paused {
		start := t.start
		s.StartedAt = &start
	}
	if t.status == Paused {
		at := t.pausedAt
		s.PausedAt = &at
	}
	return s
}

// Restore rebuilds a tracker from a saved state. Time that passed while the
// state was not loaded is never counted as play: the virtual start instant
// is placed so that Elapsed continues from s.ElapsedSeconds.
func Restore(clock Clock, s State, policy PauseGapPolicy) *Tracker {
	t := New(clock)
	now := t.clock.Now()
	elapsed := max(s.ElapsedSeconds, 0)
	paused := max(s.PauseTotal, 0)
	played := time.Duration(elapsed) * time.Second

	switch s.Status {
	case Running:
		t.start = now.Add(-played - paused)
	case Paused:
		t.pausedAt = now
		if policy == AccrueGap && s.PausedAt != nil && !s.PausedAt.After(now) {
			t.pausedAt = *s.PausedAt
		}
		t.start = t.pausedAt.Add(-played - paused)
	case Stopped:
	default:
		return t
	}

	t.status = s.Status
	t.elapsed = elapsed
	t.paused = paused
	return t
}
