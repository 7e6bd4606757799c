package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/pkg/logger"
)

// ErrPermanent marks an error that must not be retried.
var ErrPermanent = errors.New("permanent failure")

type Backoff struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

func DefaultBackoff() Backoff {
	return Backoff{
		Attempts:   5,
		Initial:    200 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2,
	}
}

func (b Backoff) normalized() Backoff {
	d := DefaultBackoff()
	if b.Attempts <= 0 {
		b.Attempts = d.Attempts
	}
	if b.Initial <= 0 {
		b.Initial = d.Initial
	}
	if b.Max <= 0 {
		b.Max = d.Max
	}
	if b.Multiplier < 1 {
		b.Multiplier = d.Multiplier
	}
	return b
}

// Do runs op until it succeeds, returns an error wrapping ErrPermanent, the
// attempts are used up or ctx is done. The last error is returned.
func Do(ctx context.Context, name string, b Backoff, op func(ctx context.Context) error) error {
	b = b.normalized()
	delay := b.Initial

	var err error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 1 {
				logger.Info("Operation succeeded after retry", zap.String("operation", name), zap.Int("attempt", attempt))
			}
			return nil
		}
		if errors.Is(err, ErrPermanent) || attempt == b.Attempts {
			break
		}

		logger.Warn("Operation failed, retrying",
			zap.String("operation", name),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", b.Attempts),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * b.Multiplier)
		if delay > b.Max {
			delay = b.Max
		}
	}
	return err
}
