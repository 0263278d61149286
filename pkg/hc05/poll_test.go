package hc05

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func countdown(n int, final error) func() error {
	return func() error {
		if n--; n > 0 {
			if n%2 == 0 {
				return ErrBusy
			}
			return ErrEmpty
		}
		return final
	}
}

func TestPollers(t *testing.T) {
	errOther := errors.New("other")
	testCases := []struct {
		name   string
		poller Poller
		fn     func() error
		expect func(*testing.T, error)
	}{
		{
			"spin until success",
			Spin{},
			countdown(10, nil),
			func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			"spin passes errors",
			Spin{},
			countdown(3, errOther),
			func(t *testing.T, err error) { require.Equal(t, errOther, err) },
		},
		{
			"backoff until success",
			Backoff{Interval: time.Microsecond, MaxInterval: 4 * time.Microsecond},
			countdown(5, nil),
			func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			"backoff exhausted",
			Backoff{Interval: time.Microsecond, MaxAttempts: 4},
			countdown(100, nil),
			func(t *testing.T, err error) {
				var exhausted *RetryExhaustedError
				require.True(t, errors.As(err, &exhausted))
				require.Equal(t, 4, exhausted.Attempts)
				require.True(t, IsBackpressure(err))
			},
		},
		{
			"func form",
			PollFunc(func(ctx context.Context, fn func() error) error { return fn() }),
			countdown(1, errOther),
			func(t *testing.T, err error) { require.Equal(t, errOther, err) },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.expect(t, tc.poller.Poll(context.Background(), tc.fn))
		})
	}
}

func TestPollCanceled(t *testing.T) {
	for _, poller := range []Poller{Spin{}, Backoff{}} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := poller.Poll(ctx, func() error { return ErrEmpty })
		require.Equal(t, context.Canceled, err)
	}
}

func TestBaudRates(t *testing.T) {
	testCases := []struct {
		bps    uint32
		expect BaudRate
	}{
		{4800, B4800},
		{9600, B9600},
		{19200, B19200},
		{38400, B38400},
		{57600, B57600},
		{115200, B115200},
		{230400, B230400},
		{460800, B460800},
		{921600, B921600},
		{1382400, B1382400},
	}
	for _, tc := range testCases {
		r, err := BaudRateFor(tc.bps)
		require.NoError(t, err)
		require.Equal(t, tc.expect, r)
		require.True(t, r.Valid())
		require.Equal(t, tc.bps, r.Rate())
		require.InDelta(t, float64(ClockHz)/float64(tc.bps), float64(r), 2)
	}
	_, err := BaudRateFor(12345)
	require.True(t, errors.Is(err, ErrInvalidBaudRate))
	require.False(t, BaudRate(42).Valid())
	require.Equal(t, "BaudRate(42)", BaudRate(42).String())
	require.Equal(t, "38400", B38400.String())
}
