package dialog

import (
	"context"
	"math/rand"
	"time"
)

// Pacing bounds for the optional artificial reply delay.
const (
	minPace = 500 * time.Millisecond
	maxPace = 2 * time.Second
)

// Pace sleeps a uniform random interval before a reply is rendered, to
// give the conversation a human rhythm. It is a no-op when disabled and
// returns immediately when ctx is cancelled; correctness never depends
// on it.
func Pace(ctx context.Context, rng *rand.Rand, enabled bool) {
	if !enabled {
		return
	}
	span := maxPace - minPace
	d := minPace + time.Duration(rng.Int63n(int64(span)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// PaceSession applies the session's delay policy.
func (s *Session) Pace(ctx context.Context) {
	Pace(ctx, s.rng, s.Config.ResponseDelay)
}
