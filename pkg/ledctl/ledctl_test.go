package ledctl

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

type fakeSampler struct {
	axes    [3]uint16
	pressed map[Switch]bool
}

func (s *fakeSampler) Axis(ch int) (uint16, error) {
	if ch < 0 || ch >= len(s.axes) {
		return 0, errors.New("no such axis")
	}
	return s.axes[ch], nil
}

func (s *fakeSampler) Pressed(sw Switch) (bool, error) {
	return s.pressed[sw], nil
}

func (s *fakeSampler) press(sws ...Switch) {
	s.pressed = make(map[Switch]bool)
	for _, sw := range sws {
		s.pressed[sw] = true
	}
}

type fakeLED struct {
	calls     []string
	intensity int
}

func (l *fakeLED) WritePixel(r, g, b int) error {
	l.calls = append(l.calls, fmt.Sprintf("pixel %d %d %d", r, g, b))
	return nil
}

func (l *fakeLED) SetIntensity(v int) error {
	l.calls = append(l.calls, fmt.Sprintf("intensity %d", v))
	l.intensity = v
	return nil
}

func (l *fakeLED) Intensity() int {
	return l.intensity
}

func TestParseToken(t *testing.T) {
	testCases := []struct {
		line   string
		expect Token
		err    bool
	}{
		{"OFF\r\n", Token{Kind: Off}, false},
		{"START\r\n", Token{Kind: Start}, false},
		{"STOP\r\n", Token{Kind: Stop}, false},
		{"R200\r\n", Channel(Red, 200), false},
		{"G0\r\n", Channel(Green, 0), false},
		{"B4095\r\n", Channel(Blue, 4095), false},
		{"R-3\r\n", Channel(Red, -3), false},
		{"STOPPED\r\n", Token{}, true},
		{"STA\r\n", Token{}, true},
		{"X12\r\n", Token{}, true},
		{"R\r\n", Token{}, true},
		{"Rabc\r\n", Token{}, true},
		{"R 12\r\n", Token{}, true},
		{"R12x\r\n", Token{}, true},
		{"\r\n", Token{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			tok, err := ParseToken([]byte(tc.line))
			if tc.err {
				require.True(t, errors.Is(err, ErrMalformedToken))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, tok)
			require.Equal(t, tc.line, string(tok.Encode()))
		})
	}
}

func newProducer() (*Producer, *fakeSampler, *sim.Capture) {
	capture := &sim.Capture{}
	dev := sim.NewDevice(capture)
	link := hc05.New(dev)
	link.Enable(0)
	sampler := &fakeSampler{}
	return NewProducer(link, sampler), sampler, capture
}

func TestProducer(t *testing.T) {
	ctx := context.Background()
	p, sampler, capture := newProducer()

	require.NoError(t, p.Tick(ctx))
	require.Empty(t, capture.Lines())

	sampler.axes = [3]uint16{4095, 0, 2048}
	sampler.press(StartSwitch)
	require.NoError(t, p.Tick(ctx))
	require.True(t, p.Armed())
	require.Equal(t, []string{"START\r\n"}, capture.Lines())

	sampler.press()
	require.NoError(t, p.Tick(ctx))
	require.Equal(t, []string{"START\r\n", "R255\r\n", "G0\r\n", "B128\r\n"}, capture.Lines())

	sampler.axes = [3]uint16{16, 31, 32}
	sampler.press(PauseSwitch)
	require.NoError(t, p.Tick(ctx))
	require.False(t, p.Armed())
	require.Equal(t, []string{"STOP\r\n", "R1\r\n", "G1\r\n", "B2\r\n"}, capture.Lines()[4:])

	sampler.press(PauseSwitch)
	require.NoError(t, p.Tick(ctx))
	require.Len(t, capture.Lines(), 8)

	sampler.press(StartSwitch, PauseSwitch)
	err := p.Tick(ctx)
	require.Equal(t, ErrSessionOff, err)
	require.True(t, errors.Is(err, fx.ErrStopLoop))
	require.Equal(t, "OFF\r\n", capture.Lines()[8])
	require.Equal(t, ErrSessionOff, p.Tick(ctx))
	require.Len(t, capture.Lines(), 9)
}

func TestProducerInLoop(t *testing.T) {
	p, sampler, capture := newProducer()
	sampler.press(StartSwitch, PauseSwitch)
	loop := fx.NewLoop().WithInterval(time.Millisecond).Add(p)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	require.Equal(t, []string{"OFF\r\n"}, capture.Lines())
}

func dispatchAll(t *testing.T, c *Consumer, lines ...string) bool {
	for _, line := range lines {
		done, err := c.Dispatch([]byte(line))
		require.NoError(t, err)
		if done {
			return true
		}
	}
	return false
}

func TestConsumer(t *testing.T) {
	testCases := []struct {
		name   string
		lines  []string
		done   bool
		state  State
		expect []string
	}{
		{
			name:  "dropped while disarmed",
			lines: []string{"R200\r\n", "STOP\r\n", "garbage\r\n"},
			state: State{Intensity: 80},
		},
		{
			name:   "start restores pixel and intensity",
			lines:  []string{"START\r\n"},
			state:  State{Armed: true, Intensity: 80},
			expect: []string{"pixel 0 0 0", "intensity 80"},
		},
		{
			name:  "channels",
			lines: []string{"START\r\n", "R200\r\n", "G50\r\n", "B7\r\n"},
			state: State{Armed: true, Red: 200, Green: 50, Blue: 7, Intensity: 80},
			expect: []string{
				"pixel 0 0 0", "intensity 80",
				"pixel 200 0 0",
				"pixel 200 50 0",
				"pixel 200 50 7",
			},
		},
		{
			name:  "stop blanks and disarms",
			lines: []string{"START\r\n", "R200\r\n", "STOP\r\n", "G50\r\n"},
			state: State{Red: 200, Intensity: 80},
			expect: []string{
				"pixel 0 0 0", "intensity 80",
				"pixel 200 0 0",
				"pixel 0 0 0", "intensity 0",
			},
		},
		{
			name:  "restart keeps channels",
			lines: []string{"START\r\n", "B9\r\n", "STOP\r\n", "START\r\n"},
			state: State{Armed: true, Blue: 9, Intensity: 80},
			expect: []string{
				"pixel 0 0 0", "intensity 80",
				"pixel 0 0 9",
				"pixel 0 0 0", "intensity 0",
				"pixel 0 0 9", "intensity 80",
			},
		},
		{
			name:   "off ignored while armed",
			lines:  []string{"START\r\n", "OFF\r\n", "X1\r\n"},
			state:  State{Armed: true, Intensity: 80},
			expect: []string{"pixel 0 0 0", "intensity 80"},
		},
		{
			name:  "values are not range checked",
			lines: []string{"START\r\n", "R300\r\n"},
			state: State{Armed: true, Red: 300, Intensity: 80},
			expect: []string{
				"pixel 0 0 0", "intensity 80",
				"pixel 300 0 0",
			},
		},
		{
			name:  "off while disarmed",
			lines: []string{"OFF\r\n", "START\r\n"},
			done:  true,
			state: State{Intensity: 80},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			led := &fakeLED{intensity: 80}
			c := NewConsumer(nil, led)
			require.Equal(t, tc.done, dispatchAll(t, c, tc.lines...))
			require.Equal(t, tc.state, c.State())
			require.Equal(t, tc.expect, led.calls)
		})
	}
}

func TestProducerToConsumer(t *testing.T) {
	master, slave := sim.NewDevice(nil), sim.NewDevice(nil)
	sim.Connect(master, slave)
	tx, rx := hc05.New(master), hc05.New(slave)
	tx.Enable(0)
	rx.Enable(0)

	sampler := &fakeSampler{axes: [3]uint16{4095, 0, 2048}}
	p := NewProducer(tx, sampler)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, sws := range [][]Switch{{StartSwitch}, nil, {PauseSwitch}, {StartSwitch, PauseSwitch}} {
		sampler.press(sws...)
		if err := p.Tick(ctx); err != nil {
			require.Equal(t, ErrSessionOff, err)
		}
	}

	led := &fakeLED{intensity: 10}
	c := NewConsumer(rx, led)
	require.NoError(t, c.Run(ctx))
	require.Equal(t, State{Red: 255, Green: 0, Blue: 128, Intensity: 10}, c.State())
	require.Equal(t, []string{
		"pixel 0 0 0", "intensity 0",
		"pixel 0 0 0", "intensity 10",
		"pixel 255 0 0",
		"pixel 255 0 0",
		"pixel 255 0 128",
		"pixel 0 0 0", "intensity 0",
	}, led.calls)
}
