package at

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/btlink/pkg/hc05"
)

// Role is the Bluetooth role of the module.
type Role int

// Roles, values match AT+ROLE.
const (
	Slave  Role = 0
	Master Role = 1
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case Slave:
		return "slave"
	case Master:
		return "master"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Set implements flag.Value.
func (r *Role) Set(s string) error {
	switch strings.ToLower(s) {
	case "slave", "0":
		*r = Slave
	case "master", "1":
		*r = Master
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return nil
}

// DefaultBindAddr is the address of the slave module the master pairs with.
const DefaultBindAddr = "98d3,32,707966"

// Config defines the AT configuration sequence.
type Config struct {
	Role Role
	// UARTBaud is the rate programmed with AT+UART.
	UARTBaud hc05.BaudRate
	// NegotiationBaud is the rate of the module in AT mode.
	NegotiationBaud hc05.BaudRate
	// OperatingBaud is the rate after AT+RESET, normally UARTBaud.
	OperatingBaud hc05.BaudRate
	// BindAddr is used by the master only, in comma form.
	BindAddr string
	// SettleDelay is waited after raising AT-select and after enabling
	// the module.
	SettleDelay time.Duration
	// ResponseCapacity bounds a single AT response in bytes.
	ResponseCapacity int
}

var defaultConfig = Config{
	Role:             Slave,
	UARTBaud:         hc05.B115200,
	NegotiationBaud:  hc05.B38400,
	OperatingBaud:    hc05.B115200,
	BindAddr:         DefaultBindAddr,
	SettleDelay:      time.Second,
	ResponseCapacity: 100,
}

type baudFlag struct {
	rate *hc05.BaudRate
}

func (f baudFlag) String() string {
	if f.rate == nil {
		return ""
	}
	return f.rate.String()
}

func (f baudFlag) Set(s string) error {
	var bps uint32
	if _, err := fmt.Sscanf(s, "%d", &bps); err != nil {
		return err
	}
	rate, err := hc05.BaudRateFor(bps)
	if err != nil {
		return err
	}
	*f.rate = rate
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(&defaultConfig.Role, "role", "Bluetooth role: master or slave.")
	flag.Var(baudFlag{&defaultConfig.UARTBaud}, "uart-baud", "Baud rate programmed into the module.")
	flag.Var(baudFlag{&defaultConfig.NegotiationBaud}, "at-baud", "Baud rate of the module in AT mode.")
	flag.Var(baudFlag{&defaultConfig.OperatingBaud}, "baud", "Baud rate after configuration.")
	flag.StringVar(&defaultConfig.BindAddr, "bind", defaultConfig.BindAddr, "Address of the slave to bind, master only.")
	flag.DurationVar(&defaultConfig.SettleDelay, "settle", defaultConfig.SettleDelay, "Delay for control lines to settle.")
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

// WithRole sets the role.
func (c *Config) WithRole(role Role) *Config {
	c.Role = role
	return c
}

// ParseAddress accepts "98d3:32:707966" as printed by AT+ADDR? or the
// comma form used by AT+BIND, and returns the comma form.
func ParseAddress(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+ADDR:")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ',' })
	if len(parts) != 3 || strings.Count(s, ":")+strings.Count(s, ",") != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for n, part := range parts {
		maxLen := 4
		if n == 1 {
			maxLen = 2
		} else if n == 2 {
			maxLen = 6
		}
		if len(part) > maxLen || strings.Trim(strings.ToLower(part), "0123456789abcdef") != "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	return strings.Join(parts, ","), nil
}

// Validate checks everything Configure needs before the module is
// touched. It returns the bind address in comma form for a master.
func (c *Config) Validate() (string, error) {
	if c.Role != Master && c.Role != Slave {
		return "", fmt.Errorf("%w: %v", ErrInvalidRole, c.Role)
	}
	for _, b := range []struct {
		name string
		rate hc05.BaudRate
	}{
		{"uart", c.UARTBaud},
		{"negotiation", c.NegotiationBaud},
		{"operating", c.OperatingBaud},
	} {
		if !b.rate.Valid() {
			return "", fmt.Errorf("%s baud: %w", b.name, hc05.ErrInvalidBaudRate)
		}
	}
	if c.Role != Master {
		return "", nil
	}
	return ParseAddress(c.BindAddr)
}
