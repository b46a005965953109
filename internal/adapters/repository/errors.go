package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("match not found")
	ErrExists       = errors.New("match already exists")
	ErrInvalidMatch = errors.New("invalid match")
	ErrInvalidLimit = errors.New("invalid list limit")
)
