package logger

import (
	"io"
	"strings"
)

// Output formats accepted by WithFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type config struct {
	output io.Writer
	format string
	level  string
}

// Option configures Init.
type Option func(*config)

// WithOutput sets the destination of log records. Nil keeps stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithFormat selects the text or JSON handler. Unknown values keep text.
func WithFormat(format string) Option {
	return func(c *config) {
		switch strings.ToLower(strings.TrimSpace(format)) {
		case FormatJSON:
			c.format = FormatJSON
		case FormatText:
			c.format = FormatText
		}
	}
}

// WithLevel sets the initial level; see SetLevelString for accepted names.
func WithLevel(level string) Option {
	return func(c *config) {
		c.level = level
	}
}
