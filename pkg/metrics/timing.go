package metrics

import "time"

// SinceMs returns the milliseconds elapsed since start as a float, keeping
// sub-millisecond precision for fast operations such as lookups.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
