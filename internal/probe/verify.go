package probe

import (
	"context"
	"sync"

	"github.com/okian/scoreline/internal/domain/timeline"
)

// Verify asks the server for every sample with the given number of workers
// and pairs each answer with the local one. Results keep sample order.
func Verify(ctx context.Context, c *Client, matchID string, tl *timeline.Timeline, samples []Sample, workers int) []Check {
	if workers < 1 {
		workers = 1
	}
	checks := make([]Check, len(samples))
	idx := make(chan int, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				s := samples[i]
				got, err := c.Score(ctx, matchID, s.Offset)
				checks[i] = Check{Sample: s, Want: LocalOutcome(tl, s.Offset), Got: got, Err: err}
			}
		}()
	}

	go func() {
		defer close(idx)
		for i := range samples {
			select {
			case <-ctx.Done():
				return
			case idx <- i:
			}
		}
	}()
	wg.Wait()

	for i := range checks {
		// never dispatched because ctx ended
		if checks[i].Want.Code == "" {
			checks[i] = Check{Sample: samples[i], Want: LocalOutcome(tl, samples[i].Offset), Err: ctx.Err()}
		}
	}
	return checks
}

// VerifyLocal checks the frozen timeline against a lookup over a copy of its
// stamps; used when no server is given.
func VerifyLocal(tl *timeline.Timeline, samples []Sample) []Check {
	stamps := tl.Stamps()
	checks := make([]Check, len(samples))
	for i, s := range samples {
		checks[i] = Check{
			Sample: s,
			Want:   LocalOutcome(tl, s.Offset),
			Got:    outcomeOf(timeline.GetScore(stamps, s.Offset)),
		}
	}
	return checks
}
