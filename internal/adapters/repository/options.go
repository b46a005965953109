package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxMatches bounds the number of stored matches; the oldest match is
// evicted when a Put would exceed it. Zero means unbounded.
func WithMaxMatches(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.maxMatches = n
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithTimelineCache bounds how many rebuilt timelines Get keeps in memory.
// Zero disables the cache.
func WithTimelineCache(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}
