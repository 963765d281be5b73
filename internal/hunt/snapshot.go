package hunt

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/playperu/treasurehunt/internal/hints"
	"github.com/playperu/treasurehunt/internal/stopwatch"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

// Snapshot is the plain-data form of an Engine handed to storage. Sets are
// stored as sorted ID lists, instants as Unix milliseconds and durations
// as milliseconds.
type Snapshot struct {
	Version              int                 `json:"version" bson:"version"`
	CurrentLocationIndex int                 `json:"currentLocationIndex" bson:"currentLocationIndex"`
	Score                *int                `json:"score,omitempty" bson:"score,omitempty"`
	PlayerName           string              `json:"playerName" bson:"playerName"`
	PlayerType           string              `json:"playerType" bson:"playerType"`
	GroupMembers         []string            `json:"groupMembers" bson:"groupMembers"`
	PersonalMessage      string              `json:"personalMessage,omitempty" bson:"personalMessage,omitempty"`
	CompletedLocations   []CompletedLocation `json:"completedLocations" bson:"completedLocations"`

	LocationNamesSubmitted IDList    `json:"locationNamesSubmitted" bson:"locationNamesSubmitted"`
	AnswersSubmitted       IDList    `json:"answersSubmitted" bson:"answersSubmitted"`
	HintsUsed              HintsUsed `json:"hintsUsed" bson:"hintsUsed"`

	TimerStatus    stopwatch.Status `json:"timerStatus,omitempty" bson:"timerStatus,omitempty"`
	ElapsedTime    int64            `json:"elapsedTime" bson:"elapsedTime"`
	IsTimerRunning bool             `json:"isTimerRunning" bson:"isTimerRunning"`
	IsTimerPaused  bool             `json:"isTimerPaused" bson:"isTimerPaused"`
	StartTime      *int64           `json:"startTime,omitempty" bson:"startTime,omitempty"`
	PauseStartTime *int64           `json:"pauseStartTime,omitempty" bson:"pauseStartTime,omitempty"`
	TotalPauseTime int64            `json:"totalPauseTime" bson:"totalPauseTime"`

	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// HintsUsed holds the revealed hint sets.
type HintsUsed struct {
	TextHints IDList `json:"textHints" bson:"textHints"`
	MapHints  IDList `json:"mapHints" bson:"mapHints"`
}

// IDList is a set of location IDs in storage form. Decoding is lenient:
// numeric strings are accepted, unusable entries are skipped, and a value
// that is not a list at all decodes as empty.
type IDList []int

func (l *IDList) UnmarshalJSON(b []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, r := range raw {
		if id, ok := parseID(r); ok {
			*l = append(*l, id)
		}
	}
	return nil
}

func parseID(r json.RawMessage) (int, bool) {
	if string(r) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(r, &f); err == nil {
		return wholeID(f)
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return numericID(s)
	}
	return 0, false
}

// wholeID accepts integral values that fit a location ID.
func wholeID(f float64) (int, bool) {
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func numericID(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n > math.MaxInt32 || n < -math.MaxInt32 {
		return 0, false
	}
	return n, true
}

func idList(set map[int]struct{}) IDList {
	out := make(IDList, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func idSet(ids IDList) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// DecodeSnapshot parses a JSON snapshot. Missing fields take their
// defaults; only input that is not a JSON object is an error.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Snapshot captures every piece of progress state.
func (e *Engine) Snapshot() Snapshot {
	score := e.score
	t := e.timer.Save()
	s := Snapshot{
		Version:                SnapshotVersion,
		CurrentLocationIndex:   e.index,
		Score:                  &score,
		PlayerName:             e.player.Name,
		PlayerType:             string(e.player.Type),
		GroupMembers:           slices.Clone(e.player.GroupMembers),
		PersonalMessage:        e.personalMessage,
		CompletedLocations:     e.Completed(),
		LocationNamesSubmitted: idList(e.named),
		AnswersSubmitted:       idList(e.answered),
		HintsUsed: HintsUsed{
			TextHints: IDList(e.hints.Revealed(hints.Text)),
			MapHints:  IDList(e.hints.Revealed(hints.Map)),
		},
		TimerStatus:    t.Status,
		ElapsedTime:    t.ElapsedSeconds,
		IsTimerRunning: t.Status == stopwatch.Running || t.Status == stopwatch.Paused,
		IsTimerPaused:  t.Status == stopwatch.Paused,
		StartTime:      millis(t.StartedAt),
		PauseStartTime: millis(t.PausedAt),
		TotalPauseTime: t.PauseTotal.Milliseconds(),
	}
	if s.GroupMembers == nil {
		s.GroupMembers = []string{}
	}
	return s
}

// Restore replaces the engine's state with s. Nothing from the previous
// state survives, and restoring never fails: out-of-range values are
// clamped and missing ones defaulted.
func (e *Engine) Restore(s Snapshot) {
	e.index = min(max(s.CurrentLocationIndex, 0), len(e.catalog.Locations))
	e.score = e.startingScore
	if s.Score != nil {
		e.score = max(*s.Score, 0)
	}

	e.player = Player{
		Name:         s.PlayerName,
		Type:         ParsePlayerType(s.PlayerType),
		GroupMembers: slices.Clone(s.GroupMembers),
	}
	e.personalMessage = s.PersonalMessage
	e.completed = slices.Clone(s.CompletedLocations)
	e.named = idSet(s.LocationNamesSubmitted)
	e.answered = idSet(s.AnswersSubmitted)
	e.hints.Reset()
	e.hints.Load(hints.Text, s.HintsUsed.TextHints)
	e.hints.Load(hints.Map, s.HintsUsed.MapHints)

	e.setTimer(stopwatch.Restore(e.clock, s.timerState(), e.gapPolicy))
}

func (s Snapshot) timerState() stopwatch.State {
	status := s.TimerStatus
	switch status {
	case stopwatch.NotStarted, stopwatch.Running, stopwatch.Paused, stopwatch.Stopped:
	default:
		// Snapshots written before timerStatus existed only carry flags.
		switch {
		case s.IsTimerRunning && s.IsTimerPaused:
			status = stopwatch.Paused
		case s.IsTimerRunning:
			status = stopwatch.Running
		case s.ElapsedTime > 0:
			status = stopwatch.Stopped
		default:
			status = stopwatch.NotStarted
		}
	}
	return stopwatch.State{
		Status:         status,
		ElapsedSeconds: s.ElapsedTime,
		PauseTotal:     time.Duration(s.TotalPauseTime) * time.Millisecond,
		StartedAt:      instant(s.StartTime),
		PausedAt:       instant(s.PauseStartTime),
	}
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func instant(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}
