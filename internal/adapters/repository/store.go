// Package repository stores match timelines behind a common Store interface
// with in-memory and SQLite implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
)

// Info is the stamp-free description of a stored match.
type Info struct {
	ID        string
	Name      string
	Digest    string
	Stamps    int
	MaxOffset int
	Final     model.Score
	CreatedAt time.Time
}

// Match is a stored match with its frozen timeline.
type Match struct {
	Info
	Timeline *timeline.Timeline
}

// NewMatch fills the derived Info fields from tl.
func NewMatch(id, name string, tl *timeline.Timeline, createdAt time.Time) Match {
	return Match{
		Info: Info{
			ID:        id,
			Name:      name,
			Digest:    timeline.Digest(tl),
			Stamps:    tl.Len(),
			MaxOffset: tl.MaxOffset(),
			Final:     tl.Final(),
			CreatedAt: createdAt.UTC(),
		},
		Timeline: tl,
	}
}

// Store provides read/write access to stored matches.
type Store interface {
	// Put stores a new match. Returns ErrExists if the ID is taken.
	Put(ctx context.Context, m Match) error

	// Get returns the match with its timeline.
	// Returns ErrNotFound if the match is unknown.
	Get(ctx context.Context, id string) (Match, error)

	// Delete removes a match. Returns ErrNotFound if the match is unknown.
	Delete(ctx context.Context, id string) error

	// List returns up to limit matches, newest first.
	List(ctx context.Context, limit int) ([]Info, error)

	// Count returns the number of stored matches.
	Count(ctx context.Context) int

	Close() error
}
