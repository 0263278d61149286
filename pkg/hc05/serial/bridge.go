// Package serial runs the link on a host with the module attached to a
// serial adapter. A software register block stands in for the FIFO
// peripheral and Bridge moves its bytes to and from the port.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05"
	"github.com/robotalks/btlink/pkg/hc05/swfifo"
)

// Port is the part of serial.Port the bridge uses.
type Port interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
}

// Bridge pumps a register block to a serial port.
type Bridge struct {
	Block *swfifo.Block
	Port  Port

	modeCh chan *serial.Mode
}

// Mode translates the control register and divisor into a port mode.
func Mode(ctrl uint32, rate hc05.BaudRate) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: int(rate.Rate()),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch ctrl & hc05.ParityMask {
	case hc05.EvenParity:
		mode.Parity = serial.EvenParity
	case hc05.OddParity:
		mode.Parity = serial.OddParity
	}
	if ctrl&hc05.StopBitsMask == hc05.StopBits2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode
}

// Open opens the serial port at the given rate, 8N1.
func Open(name string, rate hc05.BaudRate) (*Bridge, error) {
	port, err := serial.Open(name, Mode(hc05.StopBits1|hc05.NoParity, rate))
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortBusy {
			return nil, fmt.Errorf("serial port %s in use: %w", name, err)
		}
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	glog.Infof("serial port %s opened at %s bps", name, rate)
	return NewBridge(swfifo.NewDefault(), port), nil
}

// NewBridge connects block to port. Writes to the divisor register
// reconfigure the port.
func NewBridge(block *swfifo.Block, port Port) *Bridge {
	b := &Bridge{
		Block:  block,
		Port:   port,
		modeCh: make(chan *serial.Mode, 1),
	}
	block.OnBaudRate = b.onBaudRate
	return b
}

// Registers returns the block for hc05.New.
func (b *Bridge) Registers() hc05.Registers {
	return b.Block
}

func (b *Bridge) onBaudRate(rate hc05.BaudRate) {
	mode := Mode(b.Block.Ctrl(), rate)
	for {
		select {
		case b.modeCh <- mode:
			return
		default:
		}
		select {
		case <-b.modeCh:
		default:
		}
	}
}

// Run implements Runnable. It closes the port when ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAll := func(fn fx.RunFunc) fx.RunFunc {
		return func(ctx context.Context) error {
			defer cancel()
			return fn(ctx)
		}
	}
	return fx.NewRunnerWith(ctx).Go(
		fx.NamedRun("serial-rx", stopAll(b.receive)),
		fx.NamedRun("serial-tx", stopAll(b.transmit)),
	).Wait()
}

func (b *Bridge) receive(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, b.Port, func() error {
		buf := make([]byte, 256)
		for {
			n, err := b.Port.Read(buf)
			if n > 0 {
				if accepted := b.Block.Feed(buf[:n]); accepted < n {
					glog.Warningf("serial: inbound fifo full, dropped %d bytes", n-accepted)
				}
				if glog.V(5) {
					glog.Infof("serial: RX %q", buf[:n])
				}
			}
			if err != nil {
				return err
			}
		}
	})
}

func (b *Bridge) transmit(ctx context.Context) error {
	// a disabled UART holds its bytes, poll for it being turned on
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case mode := <-b.modeCh:
			if err := b.Port.SetMode(mode); err != nil {
				return fmt.Errorf("set mode %d bps: %w", mode.BaudRate, err)
			}
			glog.V(2).Infof("serial: mode %d bps", mode.BaudRate)
			continue
		case <-b.Block.OutboundReady():
		case <-ticker.C:
		}
		if !b.Block.Enabled() {
			continue
		}
		if out := b.Block.TakeOutbound(0); len(out) > 0 {
			if _, err := b.Port.Write(out); err != nil {
				return err
			}
			if glog.V(5) {
				glog.Infof("serial: TX %q", out)
			}
		}
	}
}
