// Package generator produces random match timelines: an initial nil-nil stamp
// followed by stamps at randomly spaced offsets, with the occasional goal.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
)

// Default generation parameters.
const (
	DefaultCount                  = 50_000
	DefaultScoreChangeProbability = 0.0001
	DefaultHomeProbability        = 0.45
	DefaultMaxStep                = 3

	cancelCheckInterval = 4096
)

// Generator builds timelines. It holds only configuration, so one Generator
// may be used from many goroutines.
type Generator struct {
	count       int
	maxStep     int
	scoreChange float64
	home        float64
	seed        int64
}

// New creates a Generator with the default parameters overridden by opts.
func New(opts ...Option) *Generator {
	g := &Generator{
		count:       DefaultCount,
		maxStep:     DefaultMaxStep,
		scoreChange: DefaultScoreChangeProbability,
		home:        DefaultHomeProbability,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Count returns the configured number of stamps after the initial one.
func (g *Generator) Count() int { return g.count }

// Seed returns the configured seed, or 0 when none was set.
func (g *Generator) Seed() int64 { return g.seed }

// Generate builds a timeline using the configured seed, or the current time
// when no seed was configured.
func (g *Generator) Generate(ctx context.Context) (*timeline.Timeline, error) {
	seed := g.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return g.GenerateSeeded(ctx, seed, g.count)
}

// GenerateSeeded builds a timeline of count+1 stamps from seed. The same
// seed, count and configuration always yield the same timeline.
func (g *Generator) GenerateSeeded(ctx context.Context, seed int64, count int) (*timeline.Timeline, error) {
	if count < 0 {
		count = g.count
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible match data, not security sensitive

	b := timeline.NewBuilder(count + 1)
	current := model.Initial
	if err := b.Append(current); err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("generation cancelled: %w", err)
			}
		}
		current = g.next(rng, current)
		if err := b.Append(current); err != nil {
			return nil, fmt.Errorf("generated invalid stamp: %w", err)
		}
	}
	return b.Build()
}

// next derives the stamp that follows prev.
func (g *Generator) next(rng *rand.Rand, prev model.Stamp) model.Stamp {
	scoreChanged := rng.Float64() < g.scoreChange
	homeScored := rng.Float64() < g.home
	step := 1 + rng.Intn(g.maxStep)

	score := prev.Score
	if scoreChanged {
		if homeScored {
			score.Home++
		} else {
			score.Away++
		}
	}
	return model.Stamp{Offset: prev.Offset + step, Score: score}
}
