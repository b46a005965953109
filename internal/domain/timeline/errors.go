package timeline

import (
	"errors"
	"fmt"
)

// Lookup error kinds. A failed lookup always wraps exactly one of these.
var (
	ErrOutOfRange      = errors.New("offset is out of range")
	ErrNoSuchTimestamp = errors.New("no such timestamp")
)

// Builder validation errors.
var (
	ErrEmpty         = errors.New("timeline has no stamps")
	ErrFirstOffset   = errors.New("timeline must start at offset 0")
	ErrUnordered     = errors.New("stamp offsets must be strictly increasing")
	ErrScoreDecrease = errors.New("score must not decrease")
	ErrFrozen        = errors.New("timeline is already built")
)

// LookupError is returned by GetScore. Kind is ErrOutOfRange or
// ErrNoSuchTimestamp and Offset is the offset that was asked for.
type LookupError struct {
	Kind   error
	Offset int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %d", e.Kind, e.Offset)
}

func (e *LookupError) Unwrap() error { return e.Kind }

// IsOutOfRange reports whether err is an out-of-range lookup failure.
func IsOutOfRange(err error) bool { return errors.Is(err, ErrOutOfRange) }

// IsNoSuchTimestamp reports whether err is a missing-stamp lookup failure.
func IsNoSuchTimestamp(err error) bool { return errors.Is(err, ErrNoSuchTimestamp) }
