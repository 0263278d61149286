package joystick

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	// Axes are the red, green and blue axis indices.
	Axes [3]int
	// Buttons are the start and pause button indices.
	Buttons [2]int
}

// Defaults for a common dual stick gamepad: red on right Y, green on
// right X, blue on left Y, start on the right stick click and pause on
// the left stick click.
var defaultConfig = Config{
	DeviceIndex: -1,
	Axes:        [3]int{4, 3, 1},
	Buttons:     [2]int{10, 9},
}

type indexList []int

func (l indexList) String() string {
	strs := make([]string, len(l))
	for n, v := range l {
		strs[n] = strconv.Itoa(v)
	}
	return strings.Join(strs, ",")
}

func (l indexList) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != len(l) {
		return fmt.Errorf("expect %d indices, got %q", len(l), s)
	}
	for n, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("negative index %d", v)
		}
		l[n] = v
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.Var(indexList(defaultConfig.Axes[:]), "axes", "Axis indices for red,green,blue.")
	flag.Var(indexList(defaultConfig.Buttons[:]), "buttons", "Button indices for start,pause.")
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

// NewController creates a controller using the config.
func (c *Config) NewController() *Controller {
	return &Controller{
		DeviceIndex: c.DeviceIndex,
		Verbose:     c.Verbose,
		Axes:        c.Axes,
		Buttons:     c.Buttons,
	}
}
