package hc05

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy indicates the outbound FIFO lacks space for the write.
	// Nothing was written; retry once space frees up.
	ErrBusy = errors.New("outbound fifo busy")
	// ErrEmpty indicates the inbound FIFO has nothing to read.
	ErrEmpty = errors.New("inbound fifo empty")
	// ErrInvalidBaudRate indicates a divisor outside the supported set.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
)

// IsBackpressure reports whether err is ErrBusy or ErrEmpty.
func IsBackpressure(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrEmpty)
}

// RetryExhaustedError is returned by a bounded Poller giving up.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements error.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the last backpressure error.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}
