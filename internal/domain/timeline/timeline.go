// Package timeline holds frozen match timelines and the exact point-in-time
// score lookup over them.
//
// A Timeline is only obtainable through a Builder, which enforces the
// ordering GetScore depends on. Once built it is never mutated and may be
// shared between goroutines without locking.
package timeline

import (
	"fmt"

	"github.com/okian/scoreline/internal/domain/model"
)

// Timeline is an immutable, offset-ordered sequence of stamps.
type Timeline struct {
	stamps []model.Stamp
}

// Len returns the number of stamps.
func (t *Timeline) Len() int { return len(t.stamps) }

// At returns the i-th stamp. It panics if i is out of bounds.
func (t *Timeline) At(i int) model.Stamp { return t.stamps[i] }

// Stamps returns a copy of the underlying stamps.
func (t *Timeline) Stamps() []model.Stamp {
	out := make([]model.Stamp, len(t.stamps))
	copy(out, t.stamps)
	return out
}

// MaxOffset returns the offset of the last stamp.
func (t *Timeline) MaxOffset() int { return t.stamps[len(t.stamps)-1].Offset }

// Final returns the score of the last stamp.
func (t *Timeline) Final() model.Score { return t.stamps[len(t.stamps)-1].Score }

// ScoreAt looks up the score recorded at exactly offset. See GetScore.
func (t *Timeline) ScoreAt(offset int) (model.Score, error) {
	return GetScore(t.stamps, offset)
}

// Builder accumulates stamps in order and freezes them into a Timeline.
// It is not safe for concurrent use.
type Builder struct {
	stamps []model.Stamp
	built  bool
}

// NewBuilder returns a Builder with room for sizeHint stamps.
func NewBuilder(sizeHint int) *Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Builder{stamps: make([]model.Stamp, 0, sizeHint)}
}

// Append adds s after the stamps already appended.
func (b *Builder) Append(s model.Stamp) error {
	if b.built {
		return ErrFrozen
	}
	if s.Score.Home < 0 || s.Score.Away < 0 {
		return fmt.Errorf("negative score %s at offset %d: %w", s.Score, s.Offset, ErrScoreDecrease)
	}
	if len(b.stamps) == 0 {
		if s.Offset != 0 {
			return fmt.Errorf("got offset %d: %w", s.Offset, ErrFirstOffset)
		}
		b.stamps = append(b.stamps, s)
		return nil
	}

	last := b.stamps[len(b.stamps)-1]
	if s.Offset <= last.Offset {
		return fmt.Errorf("offset %d after %d: %w", s.Offset, last.Offset, ErrUnordered)
	}
	if !s.Score.Covers(last.Score) {
		return fmt.Errorf("score %s after %s at offset %d: %w", s.Score, last.Score, s.Offset, ErrScoreDecrease)
	}
	b.stamps = append(b.stamps, s)
	return nil
}

// Len returns the number of stamps appended so far.
func (b *Builder) Len() int { return len(b.stamps) }

// Build freezes the appended stamps. The Builder cannot be used afterwards.
func (b *Builder) Build() (*Timeline, error) {
	if b.built {
		return nil, ErrFrozen
	}
	if len(b.stamps) == 0 {
		return nil, ErrEmpty
	}
	b.built = true
	t := &Timeline{stamps: b.stamps}
	b.stamps = nil
	return t, nil
}

// FromStamps validates stamps and builds a Timeline from a copy of them.
func FromStamps(stamps []model.Stamp) (*Timeline, error) {
	b := NewBuilder(len(stamps))
	for _, s := range stamps {
		if err := b.Append(s); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
