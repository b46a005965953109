// Package model contains domain models passed between layers.
package model

import "fmt"

// Score is the cumulative goal tally at a point on the match timeline.
type Score struct {
	Home int `json:"home" yaml:"home"`
	Away int `json:"away" yaml:"away"`
}

// String renders the score as "home:away".
func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.Home, s.Away)
}

// Total returns the number of goals scored by both sides.
func (s Score) Total() int {
	return s.Home + s.Away
}

// Covers reports whether s could follow prev on the same timeline, i.e.
// neither side's tally went down.
func (s Score) Covers(prev Score) bool {
	return s.Home >= prev.Home && s.Away >= prev.Away
}

// Stamp records the score in effect at and after Offset until the next stamp.
type Stamp struct {
	Offset int   // timeline position, strictly increasing within a timeline
	Score  Score // score valid from Offset onwards
}

// Initial is the stamp every timeline starts with.
var Initial = Stamp{Offset: 0, Score: Score{Home: 0, Away: 0}}
