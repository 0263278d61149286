package joystick

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/joystick/device"
	"github.com/robotalks/btlink/pkg/ledctl"
)

// ErrNoDevice is returned by samples taken while no joystick is open.
var ErrNoDevice = errors.New("no joystick")

// AxisMax is the largest sample, the range of a 12-bit ADC.
const AxisMax = 4095

// ScaleAxis maps a joystick axis value in [-32768, 32767] to [0, AxisMax].
func ScaleAxis(v int) uint16 {
	if v < -32768 {
		v = -32768
	} else if v > 32767 {
		v = 32767
	}
	return uint16((v + 32768) * AxisMax / 65535)
}

// Controller reads a joystick in the background and exposes its latest
// state as an ledctl.Sampler. Events are applied at PrLvSense, so the
// producer sees a consistent snapshot in each iteration.
type Controller struct {
	DeviceIndex int
	Verbose     bool
	// Axes maps the red, green and blue channels to axis indices.
	Axes [3]int
	// Buttons maps StartSwitch and PauseSwitch to button indices.
	Buttons [2]int
	// Open opens the device, device.Open when nil. Index < 0 means
	// auto detection.
	Open func(index int) (device.Device, error)

	lock    sync.RWMutex
	opened  bool
	axes    map[int]int
	buttons map[int]bool
}

// NewController creates a Controller with default config.
func NewController() *Controller {
	return defaultConfig.NewController()
}

// AddToLoop implements LoopAdder. The loop also starts Run as the
// controller is a Runnable.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, c)
}

// Axis implements ledctl.Sampler. Axes not reported yet are centered.
func (c *Controller) Axis(ch int) (uint16, error) {
	if ch < 0 || ch >= len(c.Axes) {
		return 0, fmt.Errorf("channel %d out of range", ch)
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.opened {
		return 0, ErrNoDevice
	}
	return ScaleAxis(c.axes[c.Axes[ch]]), nil
}

// Pressed implements ledctl.Sampler. Nothing is pressed while no
// joystick is open.
func (c *Controller) Pressed(sw ledctl.Switch) (bool, error) {
	if sw < 0 || int(sw) >= len(c.Buttons) {
		return false, fmt.Errorf("switch %d out of range", sw)
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.opened && c.buttons[c.Buttons[sw]], nil
}

// Run implements Runnable. It (re)opens the device every second until
// one is available and posts its events to the loop.
func (c *Controller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	retry := time.After(0)
	var eventCh <-chan device.Event
	var dev device.Device
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			retry = nil
			js, err := c.open()
			if err != nil || js == nil {
				if err != nil {
					glog.Warningf("open joystick: %v", err)
				} else {
					glog.V(1).Info("no joystick detected")
				}
				retry = time.After(time.Second)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes %d buttons",
				js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			dev = js
			eventCh = c.poll(ctx, js)
			loopCtl.PostMessage(&statusMsg{opened: true})
		case ev, ok := <-eventCh:
			if !ok {
				dev.Close()
				dev, eventCh = nil, nil
				loopCtl.PostMessage(&statusMsg{opened: false})
				retry = time.After(time.Second)
				continue
			}
			loopCtl.PostMessage(ev)
		}
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		switch m := msg.(type) {
		case *statusMsg:
			c.setOpened(m.opened)
		case device.Event:
			c.apply(m)
		default:
			return false
		}
		return true
	})
	return nil
}

func (c *Controller) open() (device.Device, error) {
	if c.Open != nil {
		return c.Open(c.DeviceIndex)
	}
	if c.DeviceIndex >= 0 {
		return device.Open(c.DeviceIndex)
	}
	return device.DetectAndOpen(0)
}

func (c *Controller) setOpened(opened bool) {
	c.lock.Lock()
	c.opened = opened
	c.axes, c.buttons = make(map[int]int), make(map[int]bool)
	c.lock.Unlock()
}

func (c *Controller) apply(ev device.Event) {
	if c.Verbose {
		var prefix string
		if ev.IsInit() {
			prefix = "[INIT] "
		}
		switch evt := ev.(type) {
		case device.AxisEvent:
			glog.Infof(prefix+"Axis %d: %d", evt.Index(), evt.Value())
		case device.ButtonEvent:
			glog.Infof(prefix+"Button %d: %v", evt.Index(), evt.Pressed())
		}
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.axes == nil {
		c.axes, c.buttons = make(map[int]int), make(map[int]bool)
	}
	switch evt := ev.(type) {
	case device.AxisEvent:
		c.axes[evt.Index()] = evt.Value()
	case device.ButtonEvent:
		c.buttons[evt.Index()] = evt.Pressed()
	}
}

func (c *Controller) poll(ctx context.Context, dev device.Device) <-chan device.Event {
	ch := make(chan device.Event, 16)
	go func() {
		defer close(ch)
		for {
			ev, err := dev.ReadEvent()
			if err != nil {
				glog.Warningf("joystick read: %v", err)
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

type statusMsg struct {
	opened bool
}
