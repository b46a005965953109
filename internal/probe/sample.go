package probe

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
)

// gapAttempts bounds the random search for unrecorded offsets per wanted sample.
const gapAttempts = 20

// SampleOffsets draws up to n offsets per category from tl.
//
// Present offsets are recorded stamp offsets. Gaps are offsets between zero
// and the last recorded offset that carry no stamp. Out-of-range offsets
// are negative or beyond the stamp count. The edges -1, 0, len and len+1 are
// always included.
func SampleOffsets(tl *timeline.Timeline, n int, rng *rand.Rand) []Sample {
	stamps := tl.Stamps()
	out := make([]Sample, 0, 3*n+4)
	seen := make(map[int]struct{}, 3*n+4)
	add := func(kind string, offset int) {
		if _, dup := seen[offset]; dup {
			return
		}
		seen[offset] = struct{}{}
		out = append(out, Sample{Kind: kind, Offset: offset})
	}

	add(KindPresent, 0)
	add(KindOutOfRange, -1)
	add(KindOutOfRange, len(stamps)+1)
	if !recorded(stamps, len(stamps)) {
		add(KindGap, len(stamps))
	} else {
		add(KindPresent, len(stamps))
	}

	for i := 0; i < n; i++ {
		add(KindPresent, stamps[rng.Intn(len(stamps))].Offset)
	}

	last := tl.MaxOffset()
	for i, found := 0, 0; found < n && i < n*gapAttempts && last > 1; i++ {
		offset := 1 + rng.Intn(last-1)
		if recorded(stamps, offset) {
			continue
		}
		add(KindGap, offset)
		found++
	}

	for i := 0; i < n; i++ {
		if i%2 == 0 {
			add(KindOutOfRange, -2-rng.Intn(1_000))
		} else {
			add(KindOutOfRange, len(stamps)+2+rng.Intn(1_000))
		}
	}
	return out
}

func recorded(stamps []model.Stamp, offset int) bool {
	_, ok := slices.BinarySearchFunc(stamps, offset, func(s model.Stamp, t int) int {
		return cmp.Compare(s.Offset, t)
	})
	return ok
}
