package timeline

import (
	"cmp"
	"slices"

	"github.com/okian/scoreline/internal/domain/model"
)

// GetScore returns the score recorded at exactly offset.
//
// stamps must be sorted by strictly increasing Offset; this is not checked.
// Offsets below zero or above len(stamps) fail with ErrOutOfRange. The upper
// bound is the number of stamps, not the last recorded offset, so offsets in
// (len(stamps), MaxOffset] are reported out of range as well. Any other
// offset without a stamp of its own fails with ErrNoSuchTimestamp; the
// preceding score is never substituted.
func GetScore(stamps []model.Stamp, offset int) (model.Score, error) {
	if offset < 0 || offset > len(stamps) {
		return model.Score{}, &LookupError{Kind: ErrOutOfRange, Offset: offset}
	}

	i, found := slices.BinarySearchFunc(stamps, offset, func(s model.Stamp, target int) int {
		return cmp.Compare(s.Offset, target)
	})
	if !found {
		return model.Score{}, &LookupError{Kind: ErrNoSuchTimestamp, Offset: offset}
	}
	return stamps[i].Score, nil
}
