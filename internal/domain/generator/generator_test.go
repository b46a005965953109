package generator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/scoreline/internal/domain/generator"
	"github.com/okian/scoreline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator_Generate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := generator.New(
			generator.WithCount(2000),
			generator.WithScoreChangeProbability(0.05),
			generator.WithSeed(42),
		)

		Convey("When generating a timeline", func() {
			tl, err := gen.Generate(context.Background())

			Convey("Then it should start with the initial stamp", func() {
				So(err, ShouldBeNil)
				So(tl.Len(), ShouldEqual, 2001)
				So(tl.At(0), ShouldResemble, model.Initial)
			})

			Convey("And offsets should advance by one to the max step", func() {
				for i := 1; i < tl.Len(); i++ {
					step := tl.At(i).Offset - tl.At(i-1).Offset
					So(step, ShouldBeBetweenOrEqual, 1, generator.DefaultMaxStep)
				}
			})

			Convey("And scores should change by at most one goal per step", func() {
				for i := 1; i < tl.Len(); i++ {
					diff := tl.At(i).Score.Total() - tl.At(i-1).Score.Total()
					So(diff, ShouldBeBetweenOrEqual, 0, 1)
				}
			})
		})

		Convey("When generating twice with the same seed", func() {
			a, errA := gen.Generate(context.Background())
			b, errB := gen.Generate(context.Background())

			Convey("Then both timelines should be identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(cmp.Diff(a.Stamps(), b.Stamps()), ShouldBeEmpty)
			})
		})

		Convey("When generating with different seeds", func() {
			a, _ := gen.GenerateSeeded(context.Background(), 1, 500)
			b, _ := gen.GenerateSeeded(context.Background(), 2, 500)

			Convey("Then the timelines should differ", func() {
				So(cmp.Diff(a.Stamps(), b.Stamps()), ShouldNotBeEmpty)
			})
		})
	})
}

func TestGenerator_Options(t *testing.T) {
	Convey("Given generator options", t, func() {
		Convey("When every step scores for the home side", func() {
			gen := generator.New(
				generator.WithCount(10),
				generator.WithMaxStep(1),
				generator.WithScoreChangeProbability(1),
				generator.WithHomeProbability(1),
				generator.WithSeed(3),
			)
			tl, err := gen.Generate(context.Background())

			Convey("Then offsets should be contiguous and only home should score", func() {
				So(err, ShouldBeNil)
				So(tl.MaxOffset(), ShouldEqual, 10)
				So(tl.Final(), ShouldResemble, model.Score{Home: 10, Away: 0})
			})
		})

		Convey("When goals never happen", func() {
			gen := generator.New(generator.WithCount(100), generator.WithScoreChangeProbability(0), generator.WithSeed(5))
			tl, err := gen.Generate(context.Background())

			Convey("Then the final score should stay nil-nil", func() {
				So(err, ShouldBeNil)
				So(tl.Final(), ShouldResemble, model.Score{})
			})
		})

		Convey("When invalid values are supplied", func() {
			gen := generator.New(
				generator.WithCount(-1),
				generator.WithMaxStep(0),
				generator.WithScoreChangeProbability(1.5),
				generator.WithHomeProbability(-0.1),
			)

			Convey("Then defaults should be kept", func() {
				So(gen.Count(), ShouldEqual, generator.DefaultCount)
			})
		})

		Convey("When a zero count is requested", func() {
			tl, err := generator.New(generator.WithCount(0)).Generate(context.Background())

			Convey("Then only the initial stamp should be produced", func() {
				So(err, ShouldBeNil)
				So(tl.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := generator.New(generator.WithSeed(1)).Generate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
