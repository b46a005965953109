package generator

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithCount sets how many stamps follow the initial one.
func WithCount(count int) Option {
	return func(g *Generator) {
		if count >= 0 {
			g.count = count
		}
	}
}

// WithMaxStep sets the largest offset advance between consecutive stamps.
func WithMaxStep(step int) Option {
	return func(g *Generator) {
		if step > 0 {
			g.maxStep = step
		}
	}
}

// WithScoreChangeProbability sets the chance that a step records a goal.
func WithScoreChangeProbability(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p <= 1 {
			g.scoreChange = p
		}
	}
}

// WithHomeProbability sets the chance that a goal goes to the home side.
func WithHomeProbability(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p <= 1 {
			g.home = p
		}
	}
}

// WithSeed fixes the random seed so Generate is reproducible.
// A zero seed keeps the time-based default.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.seed = seed
		}
	}
}
