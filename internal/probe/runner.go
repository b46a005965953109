package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/okian/scoreline/internal/domain/generator"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/fixture"
	"github.com/okian/scoreline/pkg/logger"
)

// ErrMismatch is returned by Run when at least one check failed.
var ErrMismatch = errors.New("probe mismatch")

// Run builds or loads a timeline, optionally saves it, verifies sampled
// offsets (against the server when cfg.BaseURL is set) and prints the report.
func Run(ctx context.Context, cfg *Config, w io.Writer) (*Report, error) {
	start := time.Now()
	log := logger.Named("probe")

	name, tl, err := source(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "timeline ready",
		logger.String("name", name),
		logger.Int("stamps", tl.Len()),
		logger.Int("max_offset", tl.MaxOffset()))

	if cfg.Output != "" {
		if err := fixture.Save(cfg.Output, name, tl); err != nil {
			return nil, err
		}
		log.Info(ctx, "fixture saved", logger.String("path", cfg.Output))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	samples := SampleOffsets(tl, cfg.Samples, rng)

	report := &Report{
		MatchID:   "local",
		Digest:    timeline.Digest(tl),
		Stamps:    tl.Len(),
		MaxOffset: tl.MaxOffset(),
	}

	if cfg.BaseURL == "" {
		report.Checks = VerifyLocal(tl, samples)
	} else {
		client := NewClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return nil, fmt.Errorf("service health check failed: %w", err)
		}
		id, dup, err := client.Import(ctx, name, tl)
		if err != nil {
			return nil, fmt.Errorf("import timeline: %w", err)
		}
		log.Info(ctx, "timeline imported", logger.String("match_id", id), logger.Bool("duplicate", dup))
		report.MatchID, report.Duplicate = id, dup
		report.Checks = Verify(ctx, client, id, tl, samples, cfg.Workers)
	}

	report.Duration = time.Since(start)
	report.Summarize()
	report.Print(w, cfg.Verbose)

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d checks failed", ErrMismatch, report.Failed, len(report.Checks))
	}
	return report, nil
}

func source(ctx context.Context, cfg *Config) (string, *timeline.Timeline, error) {
	if cfg.Fixture != "" {
		name, tl, err := fixture.Load(cfg.Fixture)
		if err != nil {
			return "", nil, err
		}
		if name == "" {
			name = cfg.Name
		}
		return name, tl, nil
	}
	gen := generator.New(generator.WithCount(cfg.Count), generator.WithSeed(cfg.Seed))
	tl, err := gen.Generate(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("generate timeline: %w", err)
	}
	return cfg.Name, tl, nil
}
