// Package hints tracks which hints a player has opened at each location.
package hints

import "slices"

// Tier is a kind of hint.
type Tier string

const (
	Text Tier = "text"
	Map  Tier = "map"
)

// Cost returns the points deducted the first time a tier is revealed at a
// location.
func (t Tier) Cost() int {
	switch t {
	case Text:
		return 30
	case Map:
		return 50
	}
	return 0
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == Text || t == Map
}

// Ledger records first reveals per location and tier. The zero value is
// ready to use. A Ledger is not safe for concurrent use.
type Ledger struct {
	revealed map[Tier]map[int]struct{}
}

// Reveal marks tier as revealed at location and reports whether this call
// was the first reveal, which is the only one that should be charged.
func (l *Ledger) Reveal(location int, tier Tier) (charged bool) {
	if l.IsRevealed(location, tier) {
		return false
	}
	if l.revealed == nil {
		l.revealed = make(map[Tier]map[int]struct{})
	}
	if l.revealed[tier] == nil {
		l.revealed[tier] = make(map[int]struct{})
	}
	l.revealed[tier][location] = struct{}{}
	return true
}

// IsRevealed reports whether tier has been revealed at location.
func (l *Ledger) IsRevealed(location int, tier Tier) bool {
	_, ok := l.revealed[tier][location]
	return ok
}

// Revealed returns the locations where tier has been revealed, sorted.
func (l *Ledger) Revealed(tier Tier) []int {
	ids := make([]int, 0, len(l.revealed[tier]))
	for id := range l.revealed[tier] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Load replaces the revealed set of tier with ids.
func (l *Ledger) Load(tier Tier, ids []int) {
	if l.revealed == nil {
		l.revealed = make(map[Tier]map[int]struct{})
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	l.revealed[tier] = set
}

// Reset forgets every reveal.
func (l *Ledger) Reset() {
	l.revealed = nil
}
