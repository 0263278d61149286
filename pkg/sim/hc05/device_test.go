package hc05

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/btlink/pkg/hc05"
)

func TestLoopbackRoundTrip(t *testing.T) {
	testCases := []string{
		"AT+VERSION?",
		"R200",
		"with\rcarriage",
		"with\nnewline",
		"",
	}
	dev := NewDevice(Loopback{})
	link := hc05.New(dev)
	link.Enable(hc05.StopBits1 | hc05.NoParity)
	for _, msg := range testCases {
		t.Run(msg, func(t *testing.T) {
			require.NoError(t, link.MustSendCommand(context.Background(), []byte(msg)))
			out, err := link.ReceiveUntilTerminator(context.Background(), nil)
			require.NoError(t, err)
			require.Equal(t, msg+"\r\n", string(out))
		})
	}
}

func TestDeviceHoldsUntilEnabled(t *testing.T) {
	var capture Capture
	dev := NewDevice(&capture)
	link := hc05.New(dev)
	_, err := link.SendMessage([]byte("queued"))
	require.NoError(t, err)
	require.Empty(t, capture.Bytes())
	require.EqualValues(t, dev.Block.FreeSpace()+6, 1024)

	link.Enable(0)
	require.Equal(t, "queued", string(capture.Bytes()))
	require.EqualValues(t, 1024, dev.FreeSpace())
}

func TestModule(t *testing.T) {
	var data Capture
	module := &Module{
		Replies: map[string]string{
			"AT+ROLE":   "ERROR:(1D)",
			"AT+ROLE=1": "OK",
			"AT+ADDR?":  "+ADDR:98d3:32:707966",
		},
		Transparent: &data,
	}
	testCases := []struct {
		in     string
		expect string
	}{
		{"AT+UART=115200,0,0\r\n", "OK\r\n"},
		{"AT+ROLE=0\r\n", "ERROR:(1D)\r\n"},
		{"AT+ROLE=1\r\n", "OK\r\n"},
		{"AT+ADDR?\r\nAT+CMODE=0\r\n", "+ADDR:98d3:32:707966\r\nOK\r\n"},
		{"AT+RE", ""},
		{"SET\r\nSTART\r\n", "OK\r\n"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, string(module.Receive([]byte(tc.in))), tc.in)
	}
	require.True(t, module.InTransparentMode())
	require.Equal(t, "START\r\n", string(data.Bytes()))
	require.Equal(t, []string{
		"AT+UART=115200,0,0",
		"AT+ROLE=0",
		"AT+ROLE=1",
		"AT+ADDR?",
		"AT+CMODE=0",
		"AT+RESET",
	}, module.Commands())
}

func TestConnect(t *testing.T) {
	a, b := NewDevice(nil), NewDevice(nil)
	Connect(a, b)
	la, lb := hc05.New(a), hc05.New(b)
	la.Enable(0)
	lb.Enable(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, la.MustSendMessage(ctx, []byte("G50\r\n")))
	out, err := lb.ReceiveUntilTerminator(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "G50\r\n", string(out))

	require.NoError(t, lb.MustSendMessage(ctx, []byte("back\r\n")))
	out, err = la.ReceiveUntilTerminator(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "back\r\n", string(out))
}

func TestCaptureLines(t *testing.T) {
	var c Capture
	c.Receive([]byte("R1\r\nG2\r"))
	c.Receive([]byte("\nB3"))
	require.Equal(t, []string{"R1\r\n", "G2\r\n", "B3"}, c.Lines())
}

func TestLineLogger(t *testing.T) {
	var l LineLogger
	require.Nil(t, l.Receive([]byte("R1\r\nG")))
	require.Empty(t, l.Receive([]byte("2\r")))
	require.Equal(t, "G2\r", string(l.line))
	l.Receive([]byte("\n"))
	require.Empty(t, l.line)
}
