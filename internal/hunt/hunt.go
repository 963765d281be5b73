// Package hunt defines the treasure-hunt domain types and the progress
// engine that scores one game. It does no I/O.
package hunt

import (
	"fmt"
	"strings"

	"github.com/playperu/treasurehunt/internal/answer"
)

// Location is one stop on the route. Its ID is stable across catalog
// edits; its position in Catalog.Locations is the visiting order.
type Location struct {
	ID                     int      `yaml:"id" json:"id"`
	Name                   string   `yaml:"name" json:"name"`
	LocationName           string   `yaml:"locationName" json:"locationName"`
	LocationNameVariations []string `yaml:"locationNameVariations" json:"locationNameVariations"`
	Clue                   string   `yaml:"clue" json:"clue"`
	Question               string   `yaml:"question" json:"question"`
	CorrectAnswer          string   `yaml:"correctAnswer" json:"correctAnswer"`
	AnswerVariations       []string `yaml:"answerVariations" json:"answerVariations"`
	TextHint               string   `yaml:"textHint" json:"textHint"`
	MapHint                string   `yaml:"mapHint" json:"mapHint"`
	Titbits                string   `yaml:"titbits" json:"titbits"`
}

// DisplayName is the name shown once the location is solved.
func (l Location) DisplayName() string {
	if l.LocationName != "" {
		return l.LocationName
	}
	return l.Name
}

// AcceptedNames lists every accepted spelling of the location name.
func (l Location) AcceptedNames() []string {
	return append([]string{l.LocationName}, l.LocationNameVariations...)
}

// AcceptedAnswers lists every accepted answer to the question.
func (l Location) AcceptedAnswers() []string {
	return append([]string{l.CorrectAnswer}, l.AnswerVariations...)
}

// StartingPoint is where the team meets before the first clue.
type StartingPoint struct {
	Name    string  `yaml:"name" json:"name"`
	Address string  `yaml:"address" json:"address"`
	Lat     float64 `yaml:"lat" json:"lat"`
	Lng     float64 `yaml:"lng" json:"lng"`
}

// Catalog is the static content of a hunt. It is never mutated once a game
// uses it and may be shared by any number of engines.
type Catalog struct {
	Title         string        `yaml:"title" json:"title"`
	StartingPoint StartingPoint `yaml:"startingPoint" json:"startingPoint"`
	Locations     []Location    `yaml:"locations" json:"locations"`
	// Letter is revealed at the end. "{name}" is replaced with the player
	// or group name.
	Letter string `yaml:"letter" json:"letter"`
}

// Validate checks the invariants an engine relies on.
func (c *Catalog) Validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("catalog has no locations")
	}
	seen := make(map[int]bool, len(c.Locations))
	for i, l := range c.Locations {
		if seen[l.ID] {
			return fmt.Errorf("location %d: duplicate id %d", i+1, l.ID)
		}
		seen[l.ID] = true
		if err := checkAccepted(l.LocationName, l.LocationNameVariations); err != nil {
			return fmt.Errorf("location %d: locationName %w", l.ID, err)
		}
		if err := checkAccepted(l.CorrectAnswer, l.AnswerVariations); err != nil {
			return fmt.Errorf("location %d: correctAnswer %w", l.ID, err)
		}
	}
	return nil
}

// checkAccepted rejects a canonical value or variation that normalizes to
// nothing, since no guess could ever match it.
func checkAccepted(canonical string, variations []string) error {
	if strings.TrimSpace(canonical) == "" {
		return fmt.Errorf("is required")
	}
	for _, v := range append([]string{canonical}, variations...) {
		if answer.Normalize(v) == "" {
			return fmt.Errorf("value %q can never be matched", v)
		}
	}
	return nil
}

// PlayerType distinguishes solo players from groups on the leaderboard.
type PlayerType string

const (
	Solo  PlayerType = "solo"
	Group PlayerType = "group"
)

// ParsePlayerType maps unknown values to Solo.
func ParsePlayerType(s string) PlayerType {
	if PlayerType(s) == Group {
		return Group
	}
	return Solo
}

// Player identifies who is playing. It has no effect on scoring.
type Player struct {
	Name         string
	Type         PlayerType
	GroupMembers []string
}

// NewPlayer builds a Player. For groups, groupNames is a comma-separated
// list; blank entries are dropped. Solo players never have members.
func NewPlayer(name string, typ PlayerType, groupNames string) Player {
	p := Player{Name: strings.TrimSpace(name), Type: ParsePlayerType(string(typ))}
	if p.Type == Group {
		for _, n := range strings.Split(groupNames, ",") {
			if n = strings.TrimSpace(n); n != "" {
				p.GroupMembers = append(p.GroupMembers, n)
			}
		}
	}
	return p
}

// CompletedLocation is appended once per location on its first correct
// answer.
type CompletedLocation struct {
	ID     int    `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Answer string `json:"answer" bson:"answer"`
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped at 60.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
