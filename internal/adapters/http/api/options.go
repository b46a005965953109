package api

const defaultMaxBodyBytes = 64 << 20

type config struct {
	maxBodyBytes int64
}

func defaultConfig() config {
	return config{maxBodyBytes: defaultMaxBodyBytes}
}

// Option configures NewServer.
type Option func(*config)

// WithMaxBodyBytes limits the size of import request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}
