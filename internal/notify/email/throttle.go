package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled caps the rate at which the wrapped sender is called.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

func NewThrottled(next Sender, perSecond float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}
	return t.next.Send(ctx, msg)
}
