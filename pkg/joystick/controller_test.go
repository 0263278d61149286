package joystick

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/joystick/device"
	"github.com/robotalks/btlink/pkg/ledctl"
)

func TestScaleAxis(t *testing.T) {
	testCases := []struct {
		in     int
		expect uint16
	}{
		{-32768, 0},
		{-40000, 0},
		{0, 2047},
		{32767, 4095},
		{50000, 4095},
		{-16384, 1023},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, ScaleAxis(tc.in), "%d", tc.in)
	}
}

func encodeEvent(typ, num uint8, value int16) []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint32(p, 1234)
	binary.LittleEndian.PutUint16(p[4:], uint16(value))
	p[6], p[7] = typ, num
	return p
}

type fakeDevice struct {
	events chan []byte
	closed chan struct{}
}

func newFakeDevice(events ...[]byte) *fakeDevice {
	d := &fakeDevice{events: make(chan []byte, len(events)), closed: make(chan struct{})}
	for _, ev := range events {
		d.events <- ev
	}
	return d
}

func (d *fakeDevice) Close() error {
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
	return nil
}

func (d *fakeDevice) Index() int       { return 0 }
func (d *fakeDevice) Name() string     { return "fake pad" }
func (d *fakeDevice) AxisCount() int   { return 6 }
func (d *fakeDevice) ButtonCount() int { return 12 }

func (d *fakeDevice) ReadEvent() (device.Event, error) {
	select {
	case p := <-d.events:
		return device.DecodeEvent(p)
	case <-d.closed:
		return nil, io.EOF
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := device.DecodeEvent(encodeEvent(0x82, 4, -32768))
	require.NoError(t, err)
	axis, ok := ev.(device.AxisEvent)
	require.True(t, ok)
	require.True(t, axis.IsInit())
	require.Equal(t, 4, axis.Index())
	require.Equal(t, -32768, axis.Value())

	ev, err = device.DecodeEvent(encodeEvent(0x01, 9, 1))
	require.NoError(t, err)
	btn, ok := ev.(device.ButtonEvent)
	require.True(t, ok)
	require.False(t, btn.IsInit())
	require.True(t, btn.Pressed())

	_, err = device.DecodeEvent([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestControllerSamples(t *testing.T) {
	dev := newFakeDevice(
		encodeEvent(0x82, 4, 32767),
		encodeEvent(0x82, 3, -32768),
		encodeEvent(0x01, 10, 1),
	)
	ctl := NewConfig().NewController()
	ctl.Open = func(int) (device.Device, error) { return dev, nil }

	_, err := ctl.Axis(0)
	require.True(t, errors.Is(err, ErrNoDevice))
	pressed, err := ctl.Pressed(ledctl.StartSwitch)
	require.NoError(t, err)
	require.False(t, pressed)

	var samples [3]uint16
	var start, pause bool
	loop := fx.NewLoop().WithInterval(time.Millisecond).Add(ctl)
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		var err error
		if start, err = ctl.Pressed(ledctl.StartSwitch); err != nil || !start {
			return nil
		}
		for n := range samples {
			if samples[n], err = ctl.Axis(n); err != nil {
				return err
			}
		}
		pause, _ = ctl.Pressed(ledctl.PauseSwitch)
		return fx.ErrStopLoop
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	require.True(t, start)
	require.False(t, pause)
	require.Equal(t, [3]uint16{4095, 0, 2047}, samples)

	_, err = ctl.Axis(3)
	require.Error(t, err)
	_, err = ctl.Pressed(ledctl.Switch(2))
	require.Error(t, err)
}

func TestControllerOpensOnce(t *testing.T) {
	var opens int32
	dev := newFakeDevice()
	ctl := NewConfig().NewController()
	ctl.Open = func(int) (device.Device, error) {
		atomic.AddInt32(&opens, 1)
		return dev, nil
	}
	loop := fx.NewLoop().WithInterval(time.Millisecond).Add(ctl)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, loop.Run(ctx))
	require.EqualValues(t, 1, atomic.LoadInt32(&opens))
}

func TestConfigFlags(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, [3]int{4, 3, 1}, conf.Axes)
	axes := indexList(conf.Axes[:])
	require.NoError(t, axes.Set("0, 1,2"))
	require.Equal(t, [3]int{0, 1, 2}, conf.Axes)
	require.Equal(t, "0,1,2", axes.String())
	require.Error(t, axes.Set("0,1"))
	require.Error(t, axes.Set("0,-1,2"))
	require.Equal(t, [3]int{4, 3, 1}, Default().Axes)
}
