package hunt

import (
	"math"
	"slices"
	"time"

	"github.com/playperu/treasurehunt/internal/hints"
)

// CompletedGame is the leaderboard record archived when a game finishes.
type CompletedGame struct {
	ID                 string              `json:"id" bson:"_id"`
	SessionID          string              `json:"sessionId" bson:"sessionId"`
	PlayerType         PlayerType          `json:"playerType" bson:"playerType"`
	PlayerName         string              `json:"playerName" bson:"playerName"`
	GroupMembers       []string            `json:"groupMembers" bson:"groupMembers"`
	FinalScore         int                 `json:"finalScore" bson:"finalScore"`
	FinalTime          int64               `json:"finalTime" bson:"finalTime"`
	CalculatedScore    int                 `json:"calculatedScore" bson:"calculatedScore"`
	CompletedLocations []CompletedLocation `json:"completedLocations" bson:"completedLocations"`
	HintsUsed          HintsUsed           `json:"hintsUsed" bson:"hintsUsed"`
	CompletedAt        time.Time           `json:"completedAt" bson:"completedAt"`
}

// CalculatedScore ranks finished games: ten per point minus one per ten
// seconds, rounded half up.
func CalculatedScore(score int, seconds int64) int {
	return int(math.Floor(float64(score)*10 - float64(seconds)/10 + 0.5))
}

// Record builds the completed-game record for this engine. The record ID is
// the session ID, so a game archived twice yields the same record.
func (e *Engine) Record(sessionID string, at time.Time) CompletedGame {
	secs := e.timer.Elapsed()
	members := slices.Clone(e.player.GroupMembers)
	if members == nil {
		members = []string{}
	}
	return CompletedGame{
		ID:                 sessionID,
		SessionID:          sessionID,
		PlayerType:         e.player.Type,
		PlayerName:         e.player.Name,
		GroupMembers:       members,
		FinalScore:         e.score,
		FinalTime:          secs,
		CalculatedScore:    CalculatedScore(e.score, secs),
		CompletedLocations: e.Completed(),
		HintsUsed: HintsUsed{
			TextHints: IDList(e.hints.Revealed(hints.Text)),
			MapHints:  IDList(e.hints.Revealed(hints.Map)),
		},
		CompletedAt: at.UTC(),
	}
}
