package utils

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out page fetches: at least minDelay between calls to Wait,
// plus a random extra of up to maxDelay-minDelay.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
	rnd     *rand.Rand
}

// NewPacer builds a Pacer. A non-positive minDelay disables the fixed part.
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	jitter := maxDelay - minDelay
	if jitter < 0 {
		jitter = 0
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		jitter:  jitter,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until the next fetch may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.jitter <= 0 {
		return nil
	}

	extra := time.Duration(p.rnd.Int63n(int64(p.jitter)))
	t := time.NewTimer(extra)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
