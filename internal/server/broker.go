package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/playperu/treasurehunt/internal/session"
)

// Broker is an in-process pub/sub for SSE events, keyed by game ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

var _ session.Publisher = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives ready-to-write SSE frames for
// the given game.
func (b *Broker) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given game. Slow
// subscribers miss events rather than block the game.
func (b *Broker) Publish(gameID string, ev session.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs[gameID]) == 0 {
		return
	}
	frame := sseFrame(ev)
	for ch := range b.subs[gameID] {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Subscribers returns how many streams follow gameID.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID])
}

func sseFrame(ev session.Event) []byte {
	data, _ := json.Marshal(ev)
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, data)
}
