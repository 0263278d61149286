// Package hc05 provides the link layer over the FIFO peripheral which
// bridges an HC-05 Bluetooth module.
//
// The peripheral exposes a bounded outbound FIFO with a free-space count
// and an inbound FIFO with a pending-data count. There are no interrupts:
// every wait is a poll of those counters. Link adds flow control on top,
// writes never overrun the outbound FIFO and reads never underrun the
// inbound FIFO. When the FIFO can't serve a request Link returns ErrBusy
// or ErrEmpty, which are backpressure signals rather than failures.
//
// Messages are framed by the two byte terminator "\r\n". Payloads must not
// contain the terminator themselves.
package hc05

import (
	"context"

	"github.com/golang/glog"
)

// Terminator ends AT commands, AT responses and application messages.
const Terminator = "\r\n"

// Link is the handle of one radio module.
// It's not safe for concurrent use: the FIFOs have a single owner.
type Link struct {
	// Poller retries operations reporting backpressure.
	// Spin is used when nil.
	Poller Poller

	regs Registers
}

// New creates a Link over the register block.
func New(regs Registers) *Link {
	return &Link{Poller: Spin{}, regs: regs}
}

// Registers returns the underlying register block.
func (l *Link) Registers() Registers {
	return l.regs
}

func (l *Link) poller() Poller {
	if p := l.Poller; p != nil {
		return p
	}
	return Spin{}
}

// SetBaudRate writes the divisor register. Only defined rates are accepted.
func (l *Link) SetBaudRate(rate BaudRate) error {
	if !rate.Valid() {
		return ErrInvalidBaudRate
	}
	l.regs.SetBaudRate(rate)
	glog.V(2).Infof("hc05: baud rate %s", rate)
	return nil
}

// BaudRate reads the current divisor.
func (l *Link) BaudRate() BaudRate {
	return l.regs.BaudRate()
}

// Enable turns on the UART with the given stop bit and parity settings,
// e.g. StopBits1|NoParity.
func (l *Link) Enable(framing uint32) {
	l.regs.SetCtrl(UARTOn | framing&(StopBitsMask|ParityMask))
}

// ResetFIFOs clears both FIFOs.
func (l *Link) ResetFIFOs() {
	l.regs.ResetFIFO(ResetFIFOs)
}

// SendByte writes one byte if the outbound FIFO has room and returns
// the free space left.
func (l *Link) SendByte(b byte) (uint32, error) {
	space := l.regs.FreeSpace()
	if space == 0 {
		return 0, ErrBusy
	}
	l.regs.WriteByte(b)
	return space - 1, nil
}

// SendMessage writes all of p or nothing. It returns the free space left.
func (l *Link) SendMessage(p []byte) (uint32, error) {
	space := l.regs.FreeSpace()
	if uint64(len(p)) > uint64(space) {
		return space, ErrBusy
	}
	for _, b := range p {
		l.regs.WriteByte(b)
	}
	return space - uint32(len(p)), nil
}

// SendCommand is SendMessage with the terminator appended. Room for the
// terminator is reserved up front.
func (l *Link) SendCommand(p []byte) (uint32, error) {
	space := l.regs.FreeSpace()
	if uint64(len(p))+2 > uint64(space) {
		return space, ErrBusy
	}
	for _, b := range p {
		l.regs.WriteByte(b)
	}
	l.regs.WriteByte('\r')
	l.regs.WriteByte('\n')
	return space - uint32(len(p)) - 2, nil
}

// MustSendByte polls SendByte until the byte is written.
func (l *Link) MustSendByte(ctx context.Context, b byte) error {
	return l.poller().Poll(ctx, func() error {
		_, err := l.SendByte(b)
		return err
	})
}

// MustSendMessage polls SendMessage until the message is written.
func (l *Link) MustSendMessage(ctx context.Context, p []byte) error {
	err := l.poller().Poll(ctx, func() error {
		_, err := l.SendMessage(p)
		return err
	})
	if err == nil && glog.V(4) {
		glog.Infof("hc05: TX %q", p)
	}
	return err
}

// MustSendCommand polls SendCommand until the command is written.
func (l *Link) MustSendCommand(ctx context.Context, p []byte) error {
	err := l.poller().Poll(ctx, func() error {
		_, err := l.SendCommand(p)
		return err
	})
	if err == nil && glog.V(4) {
		glog.Infof("hc05: TX %q", string(p)+Terminator)
	}
	return err
}

// ReceiveByte reads one byte if available and returns it with the
// pending count left.
func (l *Link) ReceiveByte() (byte, uint32, error) {
	pending := l.regs.PendingData()
	if pending == 0 {
		return 0, 0, ErrEmpty
	}
	return l.regs.ReadByte(), pending - 1, nil
}

// ReceiveAmount reads len(p) bytes without checking the pending count.
// Only use it when at least len(p) bytes are known to be pending.
func (l *Link) ReceiveAmount(p []byte) {
	for i := range p {
		p[i] = l.regs.ReadByte()
	}
}

// ReceiveAll drains the bytes pending at call time into p, at most len(p).
// Bytes arriving meanwhile are left in the FIFO.
func (l *Link) ReceiveAll(p []byte) (int, error) {
	pending := l.regs.PendingData()
	if pending == 0 {
		return 0, ErrEmpty
	}
	n := len(p)
	if uint64(pending) < uint64(n) {
		n = int(pending)
	}
	l.ReceiveAmount(p[:n])
	return n, nil
}

// WaitForData polls until at least n bytes are pending and returns the
// pending count.
func (l *Link) WaitForData(ctx context.Context, n uint32) (pending uint32, err error) {
	err = l.poller().Poll(ctx, func() error {
		if pending = l.regs.PendingData(); pending < n {
			return ErrEmpty
		}
		return nil
	})
	return
}

// ReceiveUntilTerminator reads byte by byte, appending to buf, until the
// last two bytes read are "\r\n". The terminator is kept in the result.
// Only bytes read by this call are scanned for the terminator.
//
// There is no built-in timeout: with Spin and a context which is never
// canceled, a silent peer blocks this call forever.
func (l *Link) ReceiveUntilTerminator(ctx context.Context, buf []byte) ([]byte, error) {
	poller := l.poller()
	start := len(buf)
	var prev, curr byte
	for prev != '\r' || curr != '\n' || len(buf)-start < 2 {
		err := poller.Poll(ctx, func() error {
			b, _, err := l.ReceiveByte()
			if err == nil {
				prev, curr = curr, b
			}
			return err
		})
		if err != nil {
			return buf, err
		}
		buf = append(buf, curr)
	}
	if glog.V(4) {
		glog.Infof("hc05: RX %q", buf[start:])
	}
	return buf, nil
}
