package service

import "errors"

// Sentinel kinds for service errors. Store and lookup errors pass through
// unchanged so callers can branch on repository.ErrNotFound and the
// timeline lookup kinds.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrStopped         = errors.New("service stopped")
	ErrBackpressure    = errors.New("generation queue is full")
	ErrPending         = errors.New("match is still being generated")
	ErrFailed          = errors.New("match generation failed")
	ErrInvalidCount    = errors.New("invalid stamp count")
	ErrInvalidTimeline = errors.New("invalid timeline")
)
