// Package at drives the AT command mode of an HC-05 module: it raises
// the control lines, programs UART, connection mode, role and pairing,
// then resets the module into transparent data mode.
//
// Every step is a command followed by a response which must start with
// "OK". There is no rollback: a rejected step leaves the module however
// far the sequence got, and a new Session is needed to try again.
package at

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/btlink/pkg/hc05"
)

// State is the progress of a Session.
type State int

// Session states.
const (
	Unconfigured State = iota
	AwaitingUARTAck
	AwaitingModeAck
	AwaitingRoleAck
	AwaitingBindAck
	AwaitingResetAck
	Configured
	ConfigFailed
)

var stateNames = []string{
	"Unconfigured",
	"AwaitingUARTAck",
	"AwaitingModeAck",
	"AwaitingRoleAck",
	"AwaitingBindAck",
	"AwaitingResetAck",
	"Configured",
	"ConfigFailed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ControlLines are the discrete outputs wired to the module.
type ControlLines interface {
	SetPower(on bool) error
	SetATSelect(on bool) error
	SetEnable(on bool) error
}

// Session configures one module through its Link.
type Session struct {
	Config *Config
	Link   *hc05.Link
	Lines  ControlLines
	// Sleep waits for control lines to settle, time.Sleep when nil.
	Sleep func(time.Duration)

	state State
}

// NewSession creates a Session.
func NewSession(conf *Config, link *hc05.Link, lines ControlLines) *Session {
	return &Session{Config: conf, Link: link, Lines: lines}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Configure runs the whole sequence. On success the link is left at
// the operating baud rate with empty FIFOs and the module is in
// transparent mode.
func (s *Session) Configure(ctx context.Context) error {
	if s.state != Unconfigured {
		return ErrSessionDone
	}
	conf := s.Config
	addr, err := conf.Validate()
	if err != nil {
		s.state = ConfigFailed
		return err
	}
	if err := s.powerUp(); err != nil {
		s.state = ConfigFailed
		return err
	}

	s.Link.ResetFIFOs()
	s.Link.Enable(hc05.StopBits1 | hc05.NoParity)
	if err := s.Link.SetBaudRate(conf.NegotiationBaud); err != nil {
		s.state = ConfigFailed
		return err
	}

	if err := s.step(ctx, AwaitingUARTAck, fmt.Sprintf("AT+UART=%d,0,0", conf.UARTBaud.Rate())); err != nil {
		return err
	}
	if err := s.step(ctx, AwaitingModeAck, "AT+CMODE=0"); err != nil {
		return err
	}
	if err := s.step(ctx, AwaitingRoleAck, fmt.Sprintf("AT+ROLE=%d", int(conf.Role))); err != nil {
		return err
	}
	if conf.Role == Master {
		if err := s.step(ctx, AwaitingBindAck, "AT+BIND="+addr); err != nil {
			return err
		}
	}
	if err := s.Lines.SetATSelect(false); err != nil {
		s.state = ConfigFailed
		return fmt.Errorf("at-select off: %w", err)
	}
	if err := s.step(ctx, AwaitingResetAck, "AT+RESET"); err != nil {
		return err
	}

	s.Link.ResetFIFOs()
	if err := s.Link.SetBaudRate(conf.OperatingBaud); err != nil {
		s.state = ConfigFailed
		return err
	}
	s.state = Configured
	glog.Infof("hc05 configured as %s at %s bps", conf.Role, conf.OperatingBaud)
	return nil
}

// Query sends an arbitrary command and returns the response line
// without the terminator. It doesn't change the state, e.g.
// Query(ctx, "AT+ADDR?") before Configure reads the module address.
func (s *Session) Query(ctx context.Context, cmd string) (string, error) {
	if err := s.Link.MustSendCommand(ctx, []byte(cmd)); err != nil {
		return "", err
	}
	resp, err := s.Link.ReceiveUntilTerminator(ctx, make([]byte, 0, s.responseCapacity()))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(resp), hc05.Terminator), nil
}

func (s *Session) powerUp() error {
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if err := s.Lines.SetPower(true); err != nil {
		return fmt.Errorf("power on: %w", err)
	}
	if err := s.Lines.SetATSelect(true); err != nil {
		return fmt.Errorf("at-select on: %w", err)
	}
	sleep(s.Config.SettleDelay)
	if err := s.Lines.SetEnable(true); err != nil {
		return fmt.Errorf("enable: %w", err)
	}
	sleep(s.Config.SettleDelay)
	return nil
}

func (s *Session) step(ctx context.Context, state State, cmd string) error {
	s.state = state
	glog.V(1).Infof("hc05 %s: %s", state, cmd)
	resp, err := s.Query(ctx, cmd)
	if err != nil {
		s.state = ConfigFailed
		return fmt.Errorf("%s: %w", state, err)
	}
	if !strings.HasPrefix(resp, "OK") {
		s.state = ConfigFailed
		glog.Errorf("hc05 %s: %q rejected with %q", state, cmd, resp)
		return &RejectedError{Step: state, Command: cmd, Response: resp}
	}
	return nil
}

func (s *Session) responseCapacity() int {
	if n := s.Config.ResponseCapacity; n > 0 {
		return n
	}
	return 100
}
