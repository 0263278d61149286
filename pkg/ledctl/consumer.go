package ledctl

import (
	"context"

	"github.com/golang/glog"
)

// LED is the actuator driven by the Consumer.
type LED interface {
	WritePixel(r, g, b int) error
	SetIntensity(v int) error
	Intensity() int
}

// Receiver is the inbound side of the link.
type Receiver interface {
	ReceiveUntilTerminator(ctx context.Context, buf []byte) ([]byte, error)
}

// State is owned by the Consumer.
type State struct {
	Armed            bool
	Red, Green, Blue int
	// Intensity is restored on START.
	Intensity int
}

// Consumer applies received tokens to the LED.
type Consumer struct {
	Link Receiver
	LED  LED

	state State
}

// NewConsumer creates a disarmed Consumer remembering the current LED
// intensity.
func NewConsumer(link Receiver, led LED) *Consumer {
	return &Consumer{
		Link:  link,
		LED:   led,
		state: State{Intensity: led.Intensity()},
	}
}

// State returns a copy of the state.
func (c *Consumer) State() State {
	return c.state
}

// Run blanks the LED, then dispatches messages until OFF, which returns
// nil, or a link/LED error.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.blank(); err != nil {
		return err
	}
	buf := make([]byte, 0, 100)
	for {
		line, err := c.Link.ReceiveUntilTerminator(ctx, buf[:0])
		if err != nil {
			return err
		}
		done, err := c.Dispatch(line)
		if err != nil || done {
			return err
		}
		buf = line
	}
}

// Dispatch applies one message, terminator included. It returns true
// on OFF while disarmed. Malformed and out-of-place messages are
// dropped; OFF while armed is one of them.
func (c *Consumer) Dispatch(line []byte) (bool, error) {
	tok, err := ParseToken(line)
	if err != nil {
		glog.V(3).Infof("drop %q", line)
		return false, nil
	}
	if !c.state.Armed {
		switch tok.Kind {
		case Off:
			glog.Info("session off")
			return true, nil
		case Start:
			c.state.Armed = true
			glog.Info("armed")
			if err := c.apply(); err != nil {
				return false, err
			}
			return false, c.LED.SetIntensity(c.state.Intensity)
		}
		glog.V(3).Infof("drop %s while disarmed", tok)
		return false, nil
	}

	switch tok.Kind {
	case Stop:
		c.state.Armed = false
		glog.Info("paused")
		return false, c.blank()
	case Red:
		c.state.Red = tok.Value
	case Green:
		c.state.Green = tok.Value
	case Blue:
		c.state.Blue = tok.Value
	default:
		glog.V(3).Infof("drop %s while armed", tok)
		return false, nil
	}
	return false, c.apply()
}

func (c *Consumer) apply() error {
	return c.LED.WritePixel(c.state.Red, c.state.Green, c.state.Blue)
}

func (c *Consumer) blank() error {
	if err := c.LED.WritePixel(0, 0, 0); err != nil {
		return err
	}
	return c.LED.SetIntensity(0)
}

// LogLED logs pixel changes, for nodes without an LED attached.
type LogLED struct {
	intensity int
}

// NewLogLED creates a LogLED at the given intensity.
func NewLogLED(intensity int) *LogLED {
	return &LogLED{intensity: intensity}
}

// WritePixel implements LED.
func (l *LogLED) WritePixel(r, g, b int) error {
	glog.Infof("pixel (%d, %d, %d)", r, g, b)
	return nil
}

// SetIntensity implements LED.
func (l *LogLED) SetIntensity(v int) error {
	l.intensity = v
	glog.Infof("intensity %d", v)
	return nil
}

// Intensity implements LED.
func (l *LogLED) Intensity() int {
	return l.intensity
}
