package pgm

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/btlink/pkg/hc05"
	"github.com/robotalks/btlink/pkg/hc05/swfifo"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		img    Image
		expect string
	}{
		{
			"2x2",
			&Frame{Cols: 2, Rows: 2, Max: 255, Pix: []uint16{0, 255, 128, 7}},
			"P2\n2 2\n255\n0 255\n128 7",
		},
		{
			"single column",
			&Frame{Cols: 1, Rows: 3, Max: 9, Pix: []uint16{1, 2, 3}},
			"P2\n1 3\n9\n1\n2\n3",
		},
		{
			"empty",
			&Frame{Cols: 0, Rows: 0, Max: 1},
			"P2\n0 0\n1",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tc.img))
			require.Equal(t, tc.expect, buf.String())

			var capture sim.Capture
			link := hc05.New(sim.NewDevice(&capture))
			link.Enable(0)
			require.NoError(t, NewSender(link).Send(context.Background(), tc.img))
			require.Equal(t, tc.expect, string(capture.Bytes()))
		})
	}
}

func TestSendGradient(t *testing.T) {
	img := NewGradient()
	var expect bytes.Buffer
	require.NoError(t, Encode(&expect, img))

	var capture sim.Capture
	link := hc05.New(sim.NewDevice(&capture))
	link.Enable(0)
	require.NoError(t, NewSender(link).Send(context.Background(), img))
	out := string(capture.Bytes())
	require.Equal(t, expect.String(), out)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3+SensorRows)
	require.Equal(t, "80 60", lines[1])
	require.Equal(t, "16383", lines[2])
	for _, row := range lines[3:] {
		require.Len(t, strings.Fields(row), SensorCols)
	}
	require.Equal(t, "0", strings.Fields(lines[3])[0])
	require.Equal(t, "16383", strings.Fields(lines[len(lines)-1])[SensorCols-1])
}

// A small outbound FIFO drained by a slow UART: every token still
// arrives in order.
func TestSendBackpressure(t *testing.T) {
	block := swfifo.New(16, 8)
	block.SetCtrl(hc05.UARTOn)
	link := hc05.New(block)
	link.Poller = hc05.Backoff{Interval: time.Microsecond, MaxInterval: 100 * time.Microsecond}

	img := &Frame{Cols: 3, Rows: 2, Max: 16383, Pix: []uint16{16383, 1, 22, 333, 4444, 0}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []byte)
	go func() {
		var got []byte
		for {
			select {
			case <-ctx.Done():
				done <- got
				return
			case <-block.OutboundReady():
			case <-time.After(time.Millisecond):
			}
			got = append(got, block.TakeOutbound(3)...)
			if bytes.HasSuffix(got, []byte("4444 0")) {
				done <- got
				return
			}
		}
	}()
	require.NoError(t, NewSender(link).Send(ctx, img))
	require.Equal(t, "P2\n3 2\n16383\n16383 1 22\n333 4444 0", string(<-done))
	require.Zero(t, block.Dropped())
}
