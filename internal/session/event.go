package session

import "github.com/playperu/treasurehunt/internal/hunt"

// EventType names a change pushed to a game's subscribers.
type EventType string

const (
	EventScore         EventType = "score"
	EventTime          EventType = "time"
	EventNameConfirmed EventType = "name_confirmed"
	EventAnswerCorrect EventType = "answer_correct"
	EventAdvanced      EventType = "advanced"
	EventCompleted     EventType = "completed"
)

// Event is published to a game's subscribers. Score is always the score
// after the change.
type Event struct {
	Type           EventType        `json:"type"`
	Score          int              `json:"score"`
	ElapsedSeconds int64            `json:"elapsedSeconds,omitempty"`
	Time           string           `json:"time,omitempty"`
	LocationID     int              `json:"locationId,omitempty"`
	Index          int              `json:"index,omitempty"`
	Points         int              `json:"points,omitempty"`
	FinalStats     *hunt.FinalStats `json:"finalStats,omitempty"`
}

// Publisher delivers events for one game. Publish must not block.
type Publisher interface {
	Publish(gameID string, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, Event) {}
