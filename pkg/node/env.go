// Package node sets up what every node command needs: the register
// block backend, the control lines and the configured link.
package node

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05"
	"github.com/robotalks/btlink/pkg/hc05/at"
	"github.com/robotalks/btlink/pkg/hc05/gpio"
	"github.com/robotalks/btlink/pkg/hc05/serial"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

// Backends.
const (
	BackendSim    = "sim"
	BackendSerial = "serial"
)

// Config provides common options of the node commands.
type Config struct {
	// Backend is BackendSim or BackendSerial.
	Backend string
	// Port is the serial device for BackendSerial.
	Port string
	// NoLines skips GPIO, the control lines are not wired to the host.
	NoLines bool
	// Timeout bounds the AT sequence, 0 waits forever.
	Timeout time.Duration
}

var defaultConfig = Config{
	Backend: BackendSim,
	Port:    "/dev/ttyUSB0",
}

func init() {
	if val := os.Getenv("BTLINK_PORT"); val != "" {
		defaultConfig.Backend = BackendSerial
		defaultConfig.Port = val
	}
}

// SetupFlags sets command line flags, including those of the AT
// session and GPIO lines.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Backend, "backend", defaultConfig.Backend, "Register block backend: sim or serial.")
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the module.")
	flag.BoolVar(&defaultConfig.NoLines, "no-gpio", defaultConfig.NoLines, "Control lines are not wired to GPIO.")
	flag.DurationVar(&defaultConfig.Timeout, "at-timeout", defaultConfig.Timeout, "Timeout of the AT sequence, 0 to wait forever.")
	at.SetupFlags()
	gpio.SetupFlags()
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the environment of a node.
type Env struct {
	Config  *Config
	Link    *hc05.Link
	Session *at.Session
	// Device is the simulated module for BackendSim.
	Device *sim.Device
	// Module is the AT interpreter of Device.
	Module *sim.Module

	runnables []fx.Runnable
}

// NewEnv creates Env from config. The AT session uses at.Default, the
// role is set by the command before flags are parsed.
func (c *Config) NewEnv() (*Env, error) {
	env := &Env{Config: c}
	var lines at.ControlLines = gpio.NopLines{}
	switch c.Backend {
	case BackendSim:
		env.Module = &sim.Module{}
		env.Device = sim.NewDevice(env.Module)
		env.Link = hc05.New(env.Device)
	case BackendSerial:
		bridge, err := serial.Open(c.Port, at.Default().NegotiationBaud)
		if err != nil {
			return nil, err
		}
		env.Link = hc05.New(bridge.Registers())
		env.runnables = append(env.runnables, fx.NamedRun("serial", bridge))
		if !c.NoLines {
			gl, err := gpio.Default().Open()
			if err != nil {
				return nil, err
			}
			lines = gl
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
	env.Session = at.NewSession(at.NewConfig(), env.Link, lines)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		glog.Exit(err)
	}
	return env
}

// Start runs the background pumps the link depends on. They stop when
// ctx is canceled, Wait on the returned runner collects their errors.
func (e *Env) Start(ctx context.Context) *fx.Runner {
	return fx.NewRunnerWith(ctx).Go(e.runnables...)
}

// Configure runs the AT session. A rejected step exits the process.
func (e *Env) Configure(ctx context.Context) {
	if e.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.Timeout)
		defer cancel()
	}
	if e.Config.Backend == BackendSim {
		e.Session.Sleep = func(time.Duration) {}
	}
	if err := e.Session.Configure(ctx); err != nil {
		glog.Exitf("configure hc05: %v", err)
	}
}
