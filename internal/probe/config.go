// Package probe verifies a running scoreline server against the local
// lookup: it imports a timeline, samples offsets and compares every answer.
package probe

import (
	"time"

	"github.com/okian/scoreline/internal/domain/model"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service; empty runs locally only
	Fixture string        // Fixture file to load instead of generating
	Output  string        // Write the probed timeline here as a YAML fixture
	Name    string        // Match name sent with the import
	Count   int           // Generated stamp count when no fixture is given
	Seed    int64         // Generator seed
	Samples int           // Offsets sampled per category
	Workers int           // Concurrent score requests
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Print every check, not only failures
}

// Sample categories.
const (
	KindPresent    = "present"
	KindGap        = "gap"
	KindOutOfRange = "out_of_range"
)

// Outcome codes, shared with the HTTP error codes.
const (
	OutcomeOK              = "ok"
	OutcomeOutOfRange      = "out_of_range"
	OutcomeNoSuchTimestamp = "no_such_timestamp"
)

// Sample is one offset to check and the category it was drawn from.
type Sample struct {
	Kind   string
	Offset int
}

// Outcome is the answer to a lookup, local or remote.
type Outcome struct {
	Code  string
	Score model.Score
}

func (o Outcome) String() string {
	if o.Code == OutcomeOK {
		return o.Score.String()
	}
	return o.Code
}

// Check pairs a sample with the local and remote answers.
type Check struct {
	Sample
	Want Outcome
	Got  Outcome
	Err  error
}

// Passed reports whether the remote answer matched the local one.
func (c Check) Passed() bool { return c.Err == nil && c.Got == c.Want }

// Report summarises a probe run.
type Report struct {
	MatchID   string
	Duplicate bool
	Digest    string
	Stamps    int
	MaxOffset int
	Checks    []Check
	Passed    int
	Failed    int
	Outcomes  map[string]int
	Duration  time.Duration
}
