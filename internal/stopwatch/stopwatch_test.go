package stopwatch_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/playperu/treasurehunt/internal/stopwatch"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func TestTrackerLifecycle(t *testing.T) {
	clock := newClock()
	tr := stopwatch.New(clock)

	if tr.Status() != stopwatch.NotStarted {
		t.Fatalf("status = %s, want not_started", tr.Status())
	}
	if tr.Pause() || tr.Resume() || tr.Stop() {
		t.Fatal("transitions from not_started should be ignored")
	}

	if !tr.Start() {
		t.Fatal("Start failed")
	}
	clock.Advance(10 * time.Second)
	if got := tr.Elapsed(); got != 10 {
		t.Errorf("elapsed = %d, want 10", got)
	}

	tr.Pause()
	if tr.Pause() {
		t.Error("second Pause should be ignored")
	}
	clock.Advance(45 * time.Second)
	if got := tr.Elapsed(); got != 10 {
		t.Errorf("elapsed while paused = %d, want 10", got)
	}

	tr.Resume()
	if tr.Resume() {
		t.Error("second Resume should be ignored")
	}
	if got := tr.PauseTotal(); got != 45*time.Second {
		t.Errorf("pause total = %v, want 45s", got)
	}
	clock.Advance(2500 * time.Millisecond)
	if got := tr.Elapsed(); got != 12 {
		t.Errorf("elapsed = %d, want 12 (floored)", got)
	}

	if !tr.Stop() {
		t.Fatal("Stop failed")
	}
	clock.Advance(time.Hour)
	if got := tr.Elapsed(); got != 12 {
		t.Errorf("elapsed after stop = %d, want 12", got)
	}
	if tr.Start() || tr.Stop() || tr.Pause() {
		t.Error("stopped tracker accepted a transition")
	}
}

func TestStopWhilePausedExcludesOpenPause(t *testing.T) {
	clock := newClock()
	tr := stopwatch.New(clock)
	tr.Start()
	clock.Advance(30 * time.Second)
	tr.Pause()
	clock.Advance(20 * time.Second)
	tr.Stop()

	if got := tr.Elapsed(); got != 30 {
		t.Errorf("elapsed = %d, want 30", got)
	}
}

func TestPollReportsToObserver(t *testing.T) {
	clock := newClock()
	tr := stopwatch.New(clock)
	var seen []int64
	tr.OnUpdate = func(s int64) { seen = append(seen, s) }

	tr.Start()
	for range 3 {
		clock.Advance(time.Second)
		tr.Poll()
	}

	want := []int64{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestRestoreIgnoresDisconnectedGap(t *testing.T) {
	clock := newClock()
	saved := stopwatch.State{
		Status:         stopwatch.Running,
		ElapsedSeconds: 120,
		PauseTotal:     30 * time.Second,
	}

	clock.Advance(500 * time.Second)
	tr := stopwatch.Restore(clock, saved, stopwatch.DiscardGap)

	if got := tr.Elapsed(); got != 120 {
		t.Fatalf("elapsed right after restore = %d, want 120", got)
	}
	clock.Advance(5 * time.Second)
	if got := tr.Elapsed(); got != 125 {
		t.Errorf("elapsed 5s later = %d, want 125", got)
	}
	if got := tr.PauseTotal(); got != 30*time.Second {
		t.Errorf("pause total = %v, want 30s", got)
	}
}

func TestRestorePaused(t *testing.T) {
	pausedAt := newClock().now
	tests := []struct {
		name      string
		policy    stopwatch.PauseGapPolicy
		wantPause time.Duration
	}{
		{"discard gap", stopwatch.DiscardGap, 10*time.Second + 7*time.Second},
		{"accrue gap", stopwatch.AccrueGap, 10*time.Second + 300*time.Second + 7*time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			clock.Advance(300 * time.Second)
			saved := stopwatch.State{
				Status:         stopwatch.Paused,
				ElapsedSeconds: 60,
				PauseTotal:     10 * time.Second,
				PausedAt:       &pausedAt,
			}
			tr := stopwatch.Restore(clock, saved, tt.policy)

			if tr.Status() != stopwatch.Paused {
				t.Fatalf("status = %s, want paused", tr.Status())
			}
			if got := tr.Elapsed(); got != 60 {
				t.Errorf("elapsed = %d, want 60", got)
			}

			clock.Advance(7 * time.Second)
			tr.Resume()
			if got := tr.PauseTotal(); got != tt.wantPause {
				t.Errorf("pause total = %v, want %v", got, tt.wantPause)
			}
			if got := tr.Elapsed(); got != 60 {
				t.Errorf("elapsed after resume = %d, want 60", got)
			}
			clock.Advance(4 * time.Second)
			if got := tr.Elapsed(); got != 64 {
				t.Errorf("elapsed = %d, want 64", got)
			}
		})
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	clock := newClock()
	tr := stopwatch.New(clock)
	tr.Start()
	clock.Advance(90 * time.Second)
	tr.Pause()
	clock.Advance(15 * time.Second)
	tr.Resume()
	clock.Advance(3 * time.Second)

	saved := tr.Save()
	if saved.Status != stopwatch.Running || saved.ElapsedSeconds != 93 || saved.PauseTotal != 15*time.Second {
		t.Fatalf("saved = %+v", saved)
	}

	restored := stopwatch.Restore(clock, saved, stopwatch.DiscardGap)
	clock.Advance(time.Second)
	if a, b := tr.Elapsed(), restored.Elapsed(); a != b {
		t.Errorf("restored elapsed %d differs from original %d", b, a)
	}
}

func TestRestoreTerminalAndUnknown(t *testing.T) {
	clock := newClock()

	stopped := stopwatch.Restore(clock, stopwatch.State{Status: stopwatch.Stopped, ElapsedSeconds: 42}, stopwatch.DiscardGap)
	if stopped.Status() != stopwatch.Stopped || stopped.Elapsed() != 42 {
		t.Errorf("stopped restore = %s/%d", stopped.Status(), stopped.Elapsed())
	}

	fresh := stopwatch.Restore(clock, stopwatch.State{}, stopwatch.DiscardGap)
	if fresh.Status() != stopwatch.NotStarted || fresh.Elapsed() != 0 {
		t.Errorf("empty restore = %s/%d", fresh.Status(), fresh.Elapsed())
	}
	if !fresh.Start() {
		t.Error("empty restore should be startable")
	}
}

func TestParsePauseGapPolicy(t *testing.T) {
	if p, err := stopwatch.ParsePauseGapPolicy("accrue"); err != nil || p != stopwatch.AccrueGap {
		t.Errorf("accrue = %q, %v", p, err)
	}
	if _, err := stopwatch.ParsePauseGapPolicy("sometimes"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestTickerStopIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 1)
	tk := stopwatch.Every(time.Millisecond, func() {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired")
	}

	tk.Stop()
	tk.Stop()

	var nilTicker *stopwatch.Ticker
	nilTicker.Stop()
}
