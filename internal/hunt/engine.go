package hunt

import (
	"strings"

	"github.com/playperu/treasurehunt/internal/answer"
	"github.com/playperu/treasurehunt/internal/hints"
	"github.com/playperu/treasurehunt/internal/stopwatch"
)

const (
	// PointsPerAnswer is awarded on the first correct answer at a location.
	PointsPerAnswer = 100
	// DefaultStartingScore is the score a new game starts with.
	DefaultStartingScore = 100
)

// Outcome classifies the result of a name or answer submission.
type Outcome string

const (
	Correct           Outcome = "correct"
	Incorrect         Outcome = "incorrect"
	MissingInput      Outcome = "missing_input"
	NoCurrentLocation Outcome = "no_current_location"
	NameNotConfirmed  Outcome = "name_not_confirmed"
)

// Result is returned by SubmitLocationName and SubmitAnswer.
type Result struct {
	Outcome Outcome
	// Points is the score change caused by the submission.
	Points int
}

// Correct reports whether the submission was accepted.
func (r Result) Correct() bool { return r.Outcome == Correct }

// Hint is the content of a revealed hint.
type Hint struct {
	Tier hints.Tier
	Text string
	// LocationName is set for map hints so the map can be labelled.
	LocationName string
	// Charged is true only on the first reveal of this tier here.
	Charged bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStartingScore sets the score of a new game and the default used when
// a snapshot carries no score.
func WithStartingScore(n int) Option {
	return func(e *Engine) { e.startingScore = max(n, 0) }
}

// WithClock sets the clock used by the game timer.
func WithClock(c stopwatch.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPauseGapPolicy decides how a paused timer is restored.
func WithPauseGapPolicy(p stopwatch.PauseGapPolicy) Option {
	return func(e *Engine) { e.gapPolicy = p }
}

// OnScore registers a callback invoked with the new score after every
// score change.
func OnScore(fn func(score int)) Option {
	return func(e *Engine) { e.onScore = fn }
}

// OnTime registers a callback invoked with the elapsed seconds every time
// the timer is polled.
func OnTime(fn func(seconds int64)) Option {
	return func(e *Engine) { e.onTime = fn }
}

// Engine is the progress state of one game. Index 0 is the starting point,
// 1..N are catalog positions. The game is complete when the team stands at
// location N and has answered it. An Engine is not safe for concurrent use.
type Engine struct {
	catalog       *Catalog
	startingScore int
	clock         stopwatch.Clock
	gapPolicy     stopwatch.PauseGapPolicy
	onScore       func(int)
	onTime        func(int64)

	index           int
	score           int
	player          Player
	personalMessage string
	completed       []CompletedLocation
	named           map[int]struct{}
	answered        map[int]struct{}
	hints           hints.Ledger
	timer           *stopwatch.Tracker
}

// New returns an engine at the starting point with the starting score.
func New(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:       catalog,
		startingScore: DefaultStartingScore,
		gapPolicy:     stopwatch.DiscardGap,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset returns the engine to the state of a new game. Player details are
// kept.
func (e *Engine) Reset() {
	e.index = 0
	e.score = e.startingScore
	e.completed = nil
	e.named = make(map[int]struct{})
	e.answered = make(map[int]struct{})
	e.hints.Reset()
	e.setTimer(stopwatch.New(e.clock))
}

func (e *Engine) setTimer(t *stopwatch.Tracker) {
	t.OnUpdate = e.onTime
	e.timer = t
}

// SetPlayer records who is playing.
func (e *Engine) SetPlayer(p Player) { e.player = p }

// Player returns who is playing.
func (e *Engine) Player() Player { return e.player }

// SetPersonalMessage overrides the catalog letter for this game.
func (e *Engine) SetPersonalMessage(msg string) { e.personalMessage = msg }

// Catalog returns the content the engine plays.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Index returns the current location index.
func (e *Engine) Index() int { return e.index }

// Score returns the running score.
func (e *Engine) Score() int { return e.score }

// Timer returns the game timer.
func (e *Engine) Timer() *stopwatch.Tracker { return e.timer }

// Completed returns the solved locations in the order they were solved.
func (e *Engine) Completed() []CompletedLocation {
	out := make([]CompletedLocation, len(e.completed))
	copy(out, e.completed)
	return out
}

// Current returns the location the team is at. It reports false at the
// starting point.
func (e *Engine) Current() (Location, bool) {
	if e.index < 1 || e.index > len(e.catalog.Locations) {
		return Location{}, false
	}
	return e.catalog.Locations[e.index-1], true
}

// NameConfirmed reports whether the current location's name was accepted.
func (e *Engine) NameConfirmed() bool {
	loc, ok := e.Current()
	return ok && has(e.named, loc.ID)
}

// Answered reports whether the current location's question was answered.
func (e *Engine) Answered() bool {
	loc, ok := e.Current()
	return ok && has(e.answered, loc.ID)
}

// HintRevealed reports whether tier was revealed at the current location.
func (e *Engine) HintRevealed(tier hints.Tier) bool {
	loc, ok := e.Current()
	return ok && e.hints.IsRevealed(loc.ID, tier)
}

// Start starts the timer and leaves the starting point for location 1. It
// reports false if the game has already started.
func (e *Engine) Start() bool {
	if !e.timer.Start() {
		return false
	}
	if e.index == 0 {
		e.Advance()
	}
	return true
}

// SubmitLocationName checks a guess of the current location's name.
// Confirming a name never changes the score.
func (e *Engine) SubmitLocationName(text string) Result {
	loc, ok := e.Current()
	if !ok {
		return Result{Outcome: NoCurrentLocation}
	}
	if answer.Blank(text) {
		return Result{Outcome: MissingInput}
	}
	if !answer.Matches(text, loc.AcceptedNames()...) {
		return Result{Outcome: Incorrect}
	}
	e.named[loc.ID] = struct{}{}
	return Result{Outcome: Correct}
}

// SubmitAnswer checks an answer to the current question. The location name
// must be confirmed first. Only the first correct answer scores.
func (e *Engine) SubmitAnswer(text string) Result {
	loc, ok := e.Current()
	if !ok {
		return Result{Outcome: NoCurrentLocation}
	}
	if answer.Blank(text) {
		return Result{Outcome: MissingInput}
	}
	if !has(e.named, loc.ID) {
		return Result{Outcome: NameNotConfirmed}
	}
	if !answer.Matches(text, loc.AcceptedAnswers()...) {
		return Result{Outcome: Incorrect}
	}
	if has(e.answered, loc.ID) {
		return Result{Outcome: Correct}
	}

	e.answered[loc.ID] = struct{}{}
	e.completed = append(e.completed, CompletedLocation{
		ID:     loc.ID,
		Name:   loc.DisplayName(),
		Answer: loc.CorrectAnswer,
	})
	return Result{Outcome: Correct, Points: e.addScore(PointsPerAnswer)}
}

// UseHint reveals a hint for the current location. The tier's cost is
// deducted on the first reveal only. It reports false at the starting
// point or past the end, or for an unknown tier.
func (e *Engine) UseHint(tier hints.Tier) (Hint, bool) {
	loc, ok := e.Current()
	if !ok || !tier.Valid() {
		return Hint{}, false
	}
	h := Hint{Tier: tier, Text: loc.TextHint}
	if tier == hints.Map {
		h.Text = loc.MapHint
		h.LocationName = loc.Name
	}
	if e.hints.Reveal(loc.ID, tier) {
		e.addScore(-tier.Cost())
		h.Charged = true
	}
	return h, true
}

// UseTextHint reveals the text hint for the current location.
func (e *Engine) UseTextHint() (Hint, bool) { return e.UseHint(hints.Text) }

// UseMapHint reveals the map hint for the current location.
func (e *Engine) UseMapHint() (Hint, bool) { return e.UseHint(hints.Map) }

// Advance moves to the next location. It reports false when already at
// the last location.
func (e *Engine) Advance() bool {
	if e.index >= len(e.catalog.Locations) {
		return false
	}
	e.index++
	return true
}

// IsComplete reports whether the final location has been reached and
// answered. Standing at the last location with its question still open is
// not complete, although the index already equals the number of locations.
func (e *Engine) IsComplete() bool {
	n := len(e.catalog.Locations)
	return n > 0 && e.index == n && has(e.answered, e.catalog.Locations[n-1].ID)
}

// addScore applies delta, clamps at zero and returns the applied change.
func (e *Engine) addScore(delta int) int {
	before := e.score
	e.score = max(0, e.score+delta)
	if e.onScore != nil {
		e.onScore(e.score)
	}
	return e.score - before
}

// FinalStats summarises a finished game.
type FinalStats struct {
	Time            string `json:"time"`
	ElapsedSeconds  int64  `json:"elapsedSeconds"`
	Score           int    `json:"score"`
	PersonalMessage string `json:"personalMessage"`
}

// FinalStats returns the end-of-game summary.
func (e *Engine) FinalStats() FinalStats {
	secs := e.timer.Elapsed()
	return FinalStats{
		Time:            FormatClock(secs),
		ElapsedSeconds:  secs,
		Score:           e.score,
		PersonalMessage: e.Letter(),
	}
}

// Letter returns the message revealed at the end of the hunt.
func (e *Engine) Letter() string {
	if e.personalMessage != "" {
		return e.personalMessage
	}
	return strings.ReplaceAll(e.catalog.Letter, "{name}", e.addressee())
}

func (e *Engine) addressee() string {
	if e.player.Type == Group && len(e.player.GroupMembers) > 0 {
		return strings.Join(e.player.GroupMembers, ", ")
	}
	if e.player.Name != "" {
		return e.player.Name
	}
	return "friend"
}

func has(set map[int]struct{}, id int) bool {
	_, ok := set[id]
	return ok
}
