package dedupe

// Option applies a configuration option to the in-memory index.
type Option func(*inMemoryIndex)

// WithMaxSize sets the maximum number of digests to remember.
// If maxSize > 0: bounded mode, the oldest digest is evicted first.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryIndex) {
		d.maxSize = maxSize
	}
}
