package timeline_test

import (
	"cmp"
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/okian/scoreline/internal/domain/generator"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

const fixtureCount = 5000

// scenario is the three-stamp timeline used throughout the lookup examples.
func scenario() []model.Stamp {
	return []model.Stamp{
		{Offset: 0, Score: model.Score{Home: 0, Away: 0}},
		{Offset: 2, Score: model.Score{Home: 1, Away: 0}},
		{Offset: 5, Score: model.Score{Home: 1, Away: 1}},
	}
}

func generated(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl, err := generator.New(
		generator.WithCount(fixtureCount),
		generator.WithScoreChangeProbability(0.01),
		generator.WithSeed(7),
	).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate timeline: %v", err)
	}
	return tl
}

// insertStamp puts s at its ordered position, replacing a stamp with the
// same offset.
func insertStamp(stamps []model.Stamp, s model.Stamp) []model.Stamp {
	i, found := slices.BinarySearchFunc(stamps, s.Offset, func(e model.Stamp, target int) int {
		return cmp.Compare(e.Offset, target)
	})
	if found {
		stamps[i] = s
		return stamps
	}
	return slices.Insert(stamps, i, s)
}

// removeOffsets drops every stamp whose offset is listed.
func removeOffsets(stamps []model.Stamp, offsets []int) []model.Stamp {
	for _, o := range offsets {
		i, found := slices.BinarySearchFunc(stamps, o, func(e model.Stamp, target int) int {
			return cmp.Compare(e.Offset, target)
		})
		if found {
			stamps = slices.Delete(stamps, i, i+1)
		}
	}
	return stamps
}

func TestGetScore_Scenarios(t *testing.T) {
	Convey("Given the stamps (0,0:0) (2,1:0) (5,1:1)", t, func() {
		stamps := scenario()

		Convey("When looking up a recorded offset", func() {
			score, err := timeline.GetScore(stamps, 2)

			Convey("Then it should return the recorded score", func() {
				So(err, ShouldBeNil)
				So(score, ShouldResemble, model.Score{Home: 1, Away: 0})
			})
		})

		Convey("When looking up an unrecorded offset inside the range", func() {
			_, err := timeline.GetScore(stamps, 3)

			Convey("Then it should fail with no such timestamp", func() {
				So(errors.Is(err, timeline.ErrNoSuchTimestamp), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "no such timestamp: 3")
			})
		})

		Convey("When looking up a negative offset", func() {
			_, err := timeline.GetScore(stamps, -1)

			Convey("Then it should fail with out of range", func() {
				So(errors.Is(err, timeline.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "offset is out of range: -1")
			})
		})

		Convey("When looking up an offset past the stamp count but before the last offset", func() {
			_, err := timeline.GetScore(stamps, 4)

			Convey("Then it should fail with out of range", func() {
				So(timeline.IsOutOfRange(err), ShouldBeTrue)
				So(timeline.IsNoSuchTimestamp(err), ShouldBeFalse)
			})
		})

		Convey("When looking up the offset equal to the stamp count", func() {
			_, err := timeline.GetScore(stamps, 3)

			Convey("Then it should still be inside the range", func() {
				So(timeline.IsOutOfRange(err), ShouldBeFalse)
			})
		})

		Convey("When looking up the recorded last offset above the stamp count", func() {
			_, err := timeline.GetScore(stamps, 5)

			Convey("Then the count bound should reject it", func() {
				So(timeline.IsOutOfRange(err), ShouldBeTrue)
			})
		})

		Convey("When looking up offset zero", func() {
			score, err := timeline.GetScore(stamps, 0)

			Convey("Then it should return the initial score", func() {
				So(err, ShouldBeNil)
				So(score, ShouldResemble, model.Score{})
			})
		})
	})
}

func TestGetScore_LookupError(t *testing.T) {
	Convey("Given a failed lookup", t, func() {
		_, err := timeline.GetScore(scenario(), 42)

		Convey("Then the error should carry the offending offset", func() {
			var lookupErr *timeline.LookupError
			So(errors.As(err, &lookupErr), ShouldBeTrue)
			So(lookupErr.Offset, ShouldEqual, 42)
			So(lookupErr.Kind, ShouldEqual, timeline.ErrOutOfRange)
		})

		Convey("Then the error kinds should be mutually exclusive", func() {
			So(errors.Is(err, timeline.ErrOutOfRange), ShouldBeTrue)
			So(errors.Is(err, timeline.ErrNoSuchTimestamp), ShouldBeFalse)
		})
	})
}

func TestGetScore_GeneratedTimeline(t *testing.T) {
	tl := generated(t)
	stamps := tl.Stamps()
	n := len(stamps)

	Convey("Given a generated timeline", t, func() {
		Convey("When looking up every recorded offset", func() {
			Convey("Then offsets within the stamp count should return their own score", func() {
				for _, s := range stamps {
					score, err := timeline.GetScore(stamps, s.Offset)
					if s.Offset > n {
						So(timeline.IsOutOfRange(err), ShouldBeTrue)
						continue
					}
					So(err, ShouldBeNil)
					So(score, ShouldResemble, s.Score)
				}
			})
		})

		Convey("When looking up unrecorded offsets within the stamp count", func() {
			recorded := make(map[int]bool, n)
			for _, s := range stamps {
				recorded[s.Offset] = true
			}

			Convey("Then each should fail with no such timestamp", func() {
				misses := 0
				for o := 0; o <= n; o++ {
					if recorded[o] {
						continue
					}
					_, err := tl.ScoreAt(o)
					So(timeline.IsNoSuchTimestamp(err), ShouldBeTrue)
					misses++
				}
				So(misses, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When looking up offsets outside the range", func() {
			Convey("Then negative offsets should be out of range", func() {
				for _, o := range []int{-1, -2, -n, -1 << 30} {
					_, err := tl.ScoreAt(o)
					So(timeline.IsOutOfRange(err), ShouldBeTrue)
				}
			})

			Convey("Then offsets above the stamp count should be out of range", func() {
				for _, o := range []int{n + 1, n + 2, fixtureCount*generator.DefaultMaxStep + 1} {
					_, err := tl.ScoreAt(o)
					So(timeline.IsOutOfRange(err), ShouldBeTrue)
				}
			})
		})

		Convey("When repeating the same lookups", func() {
			Convey("Then the answers should not change", func() {
				for _, o := range []int{-1, 0, 1, 2, n / 2, n, n + 1} {
					s1, err1 := tl.ScoreAt(o)
					s2, err2 := tl.ScoreAt(o)
					So(s2, ShouldResemble, s1)
					So(errors.Is(err2, timeline.ErrOutOfRange), ShouldEqual, errors.Is(err1, timeline.ErrOutOfRange))
					So(errors.Is(err2, timeline.ErrNoSuchTimestamp), ShouldEqual, errors.Is(err1, timeline.ErrNoSuchTimestamp))
				}
			})
		})
	})
}

func TestGetScore_InsertedStamps(t *testing.T) {
	const homeGoals = 7
	stamps := generated(t).Stamps()
	rng := rand.New(rand.NewSource(11))

	type want struct {
		offset int
		score  model.Score
	}
	var inserted []want
	start, end := 1, fixtureCount/homeGoals
	for i := 1; i < homeGoals; i++ {
		offset := start + rng.Intn(end-start)
		s := model.Stamp{Offset: offset, Score: model.Score{Home: i, Away: 0}}
		stamps = insertStamp(stamps, s)
		inserted = append(inserted, want{offset: offset, score: s.Score})
		start += fixtureCount / homeGoals
		end += fixtureCount / homeGoals
	}

	Convey("Given a timeline with stamps inserted at known offsets", t, func() {
		Convey("Then each inserted offset should return the inserted score", func() {
			for _, w := range inserted {
				score, err := timeline.GetScore(stamps, w.offset)
				So(err, ShouldBeNil)
				So(score, ShouldResemble, w.score)
			}
		})
	})
}

func TestGetScore_RemovedStamps(t *testing.T) {
	stamps := generated(t).Stamps()
	rng := rand.New(rand.NewSource(13))
	offsets := make([]int, 9)
	// Keep the offsets well below the stamp count that remains after removal.
	for i := range offsets {
		offsets[i] = rng.Intn(fixtureCount / 2)
	}
	stamps = removeOffsets(stamps, offsets)

	Convey("Given a timeline with stamps removed at known offsets", t, func() {
		Convey("Then each removed offset should fail with no such timestamp", func() {
			for _, o := range offsets {
				_, err := timeline.GetScore(stamps, o)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, (&timeline.LookupError{Kind: timeline.ErrNoSuchTimestamp, Offset: o}).Error())
			}
		})
	})
}

func TestGetScore_ConcurrentReaders(t *testing.T) {
	tl := generated(t)
	n := tl.Len()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < n; i += 16 {
				s := tl.At(i)
				if s.Offset > n {
					continue
				}
				got, err := tl.ScoreAt(s.Offset)
				if err != nil || got != s.Score {
					errs <- errors.New("concurrent lookup mismatch")
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func BenchmarkGetScore(b *testing.B) {
	tl, err := generator.New(generator.WithSeed(1)).Generate(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	stamps := tl.Stamps()
	n := len(stamps)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = timeline.GetScore(stamps, i%n)
	}
}
