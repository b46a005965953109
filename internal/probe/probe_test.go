package probe_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/scoreline/internal/adapters/http/api"
	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/fixture"
	"github.com/okian/scoreline/internal/probe"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

func scenario(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.FromStamps([]model.Stamp{
		{Offset: 0},
		{Offset: 2, Score: model.Score{Home: 1}},
		{Offset: 5, Score: model.Score{Home: 1, Away: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithWorkerCount(1))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSampleOffsets(t *testing.T) {
	convey.Convey("Given the three-stamp scenario timeline", t, func() {
		tl := scenario(t)
		samples := probe.SampleOffsets(tl, 10, rand.New(rand.NewSource(1)))

		convey.Convey("Then every category should be represented", func() {
			kinds := map[string]int{}
			for _, s := range samples {
				kinds[s.Kind]++
			}
			convey.So(kinds[probe.KindPresent], convey.ShouldBeGreaterThan, 0)
			convey.So(kinds[probe.KindGap], convey.ShouldBeGreaterThan, 0)
			convey.So(kinds[probe.KindOutOfRange], convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("Then offsets should be unique and correctly labelled", func() {
			seen := map[int]bool{}
			for _, s := range samples {
				convey.So(seen[s.Offset], convey.ShouldBeFalse)
				seen[s.Offset] = true
				switch s.Kind {
				case probe.KindOutOfRange:
					convey.So(s.Offset < 0 || s.Offset > tl.Len(), convey.ShouldBeTrue)
				case probe.KindGap:
					convey.So(probe.LocalOutcome(tl, s.Offset).Code, convey.ShouldNotEqual, probe.OutcomeOK)
				}
			}
			convey.So(seen[-1], convey.ShouldBeTrue)
			convey.So(seen[0], convey.ShouldBeTrue)
			convey.So(seen[tl.Len()], convey.ShouldBeTrue)
			convey.So(seen[tl.Len()+1], convey.ShouldBeTrue)
		})
	})
}

func TestLocalOutcome(t *testing.T) {
	tl := scenario(t)
	tests := []struct {
		offset int
		want   probe.Outcome
	}{
		{2, probe.Outcome{Code: probe.OutcomeOK, Score: model.Score{Home: 1}}},
		{3, probe.Outcome{Code: probe.OutcomeNoSuchTimestamp}},
		{-1, probe.Outcome{Code: probe.OutcomeOutOfRange}},
		{4, probe.Outcome{Code: probe.OutcomeOutOfRange}},
	}
	for _, tt := range tests {
		if got := probe.LocalOutcome(tl, tt.offset); got != tt.want {
			t.Errorf("offset %d: got %v want %v", tt.offset, got, tt.want)
		}
	}
}

func TestClient(t *testing.T) {
	convey.Convey("Given a client against a live API", t, func() {
		srv := newServer(t)
		client := probe.NewClient(srv.URL, time.Second)
		ctx := context.Background()
		tl := scenario(t)

		convey.Convey("When the timeline is imported twice", func() {
			id, dup, err := client.Import(ctx, "scenario", tl)
			convey.So(err, convey.ShouldBeNil)
			id2, dup2, err := client.Import(ctx, "scenario", tl)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the second import should be a duplicate of the first", func() {
				convey.So(client.Health(ctx), convey.ShouldBeNil)
				convey.So(dup, convey.ShouldBeFalse)
				convey.So(dup2, convey.ShouldBeTrue)
				convey.So(id2, convey.ShouldEqual, id)
			})

			convey.Convey("Then remote answers should match the local lookup", func() {
				for _, off := range []int{-1, 0, 2, 3, 4, 5} {
					got, err := client.Score(ctx, id, off)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldResemble, probe.LocalOutcome(tl, off))
				}
			})
		})

		convey.Convey("When scoring an unknown match", func() {
			_, err := client.Score(ctx, "nope", 0)

			convey.Convey("Then an unexpected status error should be returned", func() {
				convey.So(errors.Is(err, probe.ErrUnexpectedStatus), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a probe configuration", t, func() {
		ctx := context.Background()
		var out bytes.Buffer
		cfg := &probe.Config{Name: "probe", Count: 500, Seed: 7, Samples: 20, Workers: 4, Timeout: time.Second}

		convey.Convey("When run against a live server", func() {
			cfg.BaseURL = newServer(t).URL
			cfg.Output = filepath.Join(t.TempDir(), "probe.yaml")
			report, err := probe.Run(ctx, cfg, &out)

			convey.Convey("Then every check should pass and the fixture should round trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Failed, convey.ShouldEqual, 0)
				convey.So(report.Passed, convey.ShouldEqual, len(report.Checks))
				convey.So(report.Stamps, convey.ShouldEqual, 501)
				convey.So(out.String(), convey.ShouldContainSubstring, "passed")

				_, saved, err := fixture.Load(cfg.Output)
				convey.So(err, convey.ShouldBeNil)
				convey.So(timeline.Digest(saved), convey.ShouldEqual, report.Digest)
			})
		})

		convey.Convey("When run without a server", func() {
			report, err := probe.Run(ctx, cfg, &out)

			convey.Convey("Then the local self-check should pass", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.MatchID, convey.ShouldEqual, "local")
				convey.So(report.Failed, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the server answers every lookup with a fixed score", func() {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {})
			mux.HandleFunc("POST /matches/import", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"match_id":"liar","duplicate":false}`))
			})
			mux.HandleFunc("GET /matches/{id}/score", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"home":9,"away":9}`))
			})
			liar := httptest.NewServer(mux)
			defer liar.Close()
			cfg.BaseURL = liar.URL

			report, err := probe.Run(ctx, cfg, &out)

			convey.Convey("Then the mismatches should be reported", func() {
				convey.So(errors.Is(err, probe.ErrMismatch), convey.ShouldBeTrue)
				convey.So(report.Failed, convey.ShouldBeGreaterThan, 0)
				convey.So(out.String(), convey.ShouldContainSubstring, "FAIL")
			})
		})

		convey.Convey("When the fixture does not exist", func() {
			cfg.Fixture = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := probe.Run(ctx, cfg, &out)

			convey.Convey("Then Run should fail before probing", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
