// Package gpio drives the power, AT-select and enable lines of the
// module from host GPIO pins.
package gpio

import (
	"flag"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Config names the pins, as known to gpioreg, e.g. "GPIO17".
// An empty name leaves the line unconnected.
type Config struct {
	Power    string
	ATSelect string
	Enable   string
}

var defaultConfig = Config{
	Power:    "GPIO17",
	ATSelect: "GPIO27",
	Enable:   "GPIO22",
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Power, "pin-power", defaultConfig.Power, "GPIO powering the module, empty if always on.")
	flag.StringVar(&defaultConfig.ATSelect, "pin-atsel", defaultConfig.ATSelect, "GPIO selecting AT mode (KEY).")
	flag.StringVar(&defaultConfig.Enable, "pin-enable", defaultConfig.Enable, "GPIO enabling the module (EN).")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Lines implements at.ControlLines.
type Lines struct {
	power, atSelect, enable gpio.PinOut
}

// Open initializes the host drivers and looks up the pins. All lines
// are driven low.
func (c *Config) Open() (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}
	return c.Bind(gpioreg.ByName)
}

// Bind looks up the pins with lookup and drives them low.
func (c *Config) Bind(lookup func(name string) gpio.PinIO) (*Lines, error) {
	l := &Lines{}
	for _, p := range []struct {
		name string
		pin  *gpio.PinOut
	}{
		{c.Power, &l.power},
		{c.ATSelect, &l.atSelect},
		{c.Enable, &l.enable},
	} {
		if p.name == "" {
			continue
		}
		pin := lookup(p.name)
		if pin == nil {
			return nil, fmt.Errorf("failed to open pin %s", p.name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("pin %s: %w", p.name, err)
		}
		*p.pin = pin
	}
	return l, nil
}

// SetPower implements at.ControlLines.
func (l *Lines) SetPower(on bool) error {
	return set(l.power, on)
}

// SetATSelect implements at.ControlLines.
func (l *Lines) SetATSelect(on bool) error {
	return set(l.atSelect, on)
}

// SetEnable implements at.ControlLines.
func (l *Lines) SetEnable(on bool) error {
	return set(l.enable, on)
}

func set(pin gpio.PinOut, on bool) error {
	if pin == nil {
		return nil
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	glog.V(2).Infof("gpio %s -> %s", pin, level)
	return pin.Out(level)
}

// NopLines is used when the control lines are not wired to the host,
// e.g. a USB adapter with the module already in the wanted mode.
type NopLines struct{}

// SetPower implements at.ControlLines.
func (NopLines) SetPower(bool) error { return nil }

// SetATSelect implements at.ControlLines.
func (NopLines) SetATSelect(bool) error { return nil }

// SetEnable implements at.ControlLines.
func (NopLines) SetEnable(bool) error { return nil }
