package hc05

import (
	"context"
	"runtime"
	"time"
)

// Poller retries a non-blocking FIFO operation while it reports
// backpressure (ErrBusy or ErrEmpty). Any other result, nil included,
// ends polling and is returned as-is.
type Poller interface {
	Poll(ctx context.Context, fn func() error) error
}

// PollFunc is the func form of Poller.
type PollFunc func(ctx context.Context, fn func() error) error

// Poll implements Poller.
func (f PollFunc) Poll(ctx context.Context, fn func() error) error {
	return f(ctx, fn)
}

// Spin busy-polls without bound. It only stops on ctx cancellation, so
// with context.Background a silent peer blocks the caller forever.
type Spin struct{}

// Poll implements Poller.
func (Spin) Poll(ctx context.Context, fn func() error) error {
	for {
		err := fn()
		if !IsBackpressure(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		runtime.Gosched()
	}
}

// Backoff sleeps between attempts, doubling the interval up to
// MaxInterval. MaxAttempts > 0 bounds the number of attempts.
type Backoff struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxAttempts int
}

// Defaults used for zero Backoff fields.
const (
	DefaultBackoffInterval    = 100 * time.Microsecond
	DefaultBackoffMaxInterval = 10 * time.Millisecond
)

// Poll implements Poller.
func (b Backoff) Poll(ctx context.Context, fn func() error) error {
	interval, maxInterval := b.Interval, b.MaxInterval
	if interval <= 0 {
		interval = DefaultBackoffInterval
	}
	if maxInterval <= 0 {
		maxInterval = DefaultBackoffMaxInterval
	}
	if maxInterval < interval {
		maxInterval = interval
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if !IsBackpressure(err) {
			return err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return &RetryExhaustedError{Attempts: attempt, Last: err}
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if interval *= 2; interval > maxInterval {
			interval = maxInterval
		}
	}
}
