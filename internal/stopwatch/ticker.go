package stopwatch

import (
	"sync"
	"time"
)

// Ticker calls a function at a fixed interval until stopped.
type Ticker struct {
	stop chan struct{}
	once sync.Once
}

// Every starts calling fn every interval on its own goroutine. fn must do
// its own locking if it touches shared state.
func Every(interval time.Duration, fn func()) *Ticker {
	t := &Ticker{stop: make(chan struct{})}
	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tick.C:
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

// Stop ends the ticker. It is safe to call more than once and does not wait
// for an in-flight call of fn to return.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
}
