package session

import (
	"github.com/playperu/treasurehunt/internal/hints"
	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/stopwatch"
)

// State is what a player may see of their game. Location names, questions
// and hints stay hidden until the player has earned them.
type State struct {
	GameID         string                   `json:"gameId"`
	Title          string                   `json:"title"`
	StartingPoint  hunt.StartingPoint       `json:"startingPoint"`
	Index          int                      `json:"currentLocationIndex"`
	TotalLocations int                      `json:"totalLocations"`
	Score          int                      `json:"score"`
	ElapsedSeconds int64                    `json:"elapsedSeconds"`
	Time           string                   `json:"time"`
	TimerStatus    stopwatch.Status         `json:"timerStatus"`
	Player         PlayerView               `json:"player"`
	Current        *LocationView            `json:"currentLocation"`
	Completed      []hunt.CompletedLocation `json:"completedLocations"`
	Finished       bool                     `json:"finished"`
	FinalStats     *hunt.FinalStats         `json:"finalStats,omitempty"`
}

// PlayerView is the player as shown to the client.
type PlayerView struct {
	Name         string          `json:"name"`
	Type         hunt.PlayerType `json:"type"`
	GroupMembers []string        `json:"groupMembers"`
}

// LocationView is the current location with unearned content removed.
// Before the name is confirmed only the ID and clue are shown.
type LocationView struct {
	ID            int    `json:"id"`
	Name          string `json:"name,omitempty"`
	Clue          string `json:"clue"`
	NameConfirmed bool   `json:"nameConfirmed"`
	LocationName  string `json:"locationName,omitempty"`
	Question      string `json:"question,omitempty"`
	Answered      bool   `json:"answered"`
	Titbits       string `json:"titbits,omitempty"`
	TextHint      string `json:"textHint,omitempty"`
	MapHint       string `json:"mapHint,omitempty"`
}

func stateOf(id string, e *hunt.Engine, final *hunt.FinalStats) State {
	c := e.Catalog()
	secs := e.Timer().Elapsed()
	p := e.Player()
	members := p.GroupMembers
	if members == nil {
		members = []string{}
	}
	st := State{
		GameID:         id,
		Title:          c.Title,
		StartingPoint:  c.StartingPoint,
		Index:          e.Index(),
		TotalLocations: len(c.Locations),
		Score:          e.Score(),
		ElapsedSeconds: secs,
		Time:           hunt.FormatClock(secs),
		TimerStatus:    e.Timer().Status(),
		Player:         PlayerView{Name: p.Name, Type: p.Type, GroupMembers: members},
		Completed:      e.Completed(),
		Finished:       final != nil,
		FinalStats:     final,
	}
	if final != nil {
		return st
	}
	if loc, ok := e.Current(); ok {
		v := &LocationView{
			ID:            loc.ID,
			Clue:          loc.Clue,
			NameConfirmed: e.NameConfirmed(),
			Answered:      e.Answered(),
		}
		if v.NameConfirmed {
			v.Name = loc.Name
			v.LocationName = loc.LocationName
			v.Question = loc.Question
		}
		if v.Answered {
			v.Titbits = loc.Titbits
		}
		if e.HintRevealed(hints.Text) {
			v.TextHint = loc.TextHint
		}
		if e.HintRevealed(hints.Map) {
			v.MapHint = loc.MapHint
		}
		st.Current = v
	}
	return st
}
