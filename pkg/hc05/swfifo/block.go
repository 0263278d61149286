// Package swfifo emulates the FIFO peripheral register block in software.
//
// The link side uses it through hc05.Registers. The wire side, a simulated
// peer or a pump to a real serial port, moves bytes with TakeOutbound and
// Feed. Both sides may run on different goroutines.
package swfifo

import (
	"sync"

	"github.com/robotalks/btlink/pkg/hc05"
)

// DefaultCapacity is the depth of each FIFO in the hardware peripheral.
const DefaultCapacity = 1024

// Block is a software register block with two bounded FIFOs.
type Block struct {
	// OnBaudRate is called after the divisor register is written.
	OnBaudRate func(hc05.BaudRate)

	lock     sync.Mutex
	out      ring
	in       ring
	ctrl     uint32
	baud     hc05.BaudRate
	dropped  uint64
	outReady chan struct{}
}

// New creates a Block with the given FIFO depths.
func New(outCap, inCap int) *Block {
	if outCap <= 0 {
		outCap = DefaultCapacity
	}
	if inCap <= 0 {
		inCap = DefaultCapacity
	}
	return &Block{
		out:      newRing(outCap),
		in:       newRing(inCap),
		outReady: make(chan struct{}, 1),
	}
}

// NewDefault creates a Block with DefaultCapacity FIFOs.
func NewDefault() *Block {
	return New(DefaultCapacity, DefaultCapacity)
}

// FreeSpace implements hc05.Registers.
func (b *Block) FreeSpace() uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return uint32(b.out.free())
}

// PendingData implements hc05.Registers.
func (b *Block) PendingData() uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return uint32(b.in.len())
}

// WriteByte implements hc05.Registers. The byte is dropped when the
// outbound FIFO is full.
func (b *Block) WriteByte(v byte) {
	b.lock.Lock()
	ok := b.out.push(v)
	if !ok {
		b.dropped++
	}
	b.lock.Unlock()
	if ok {
		select {
		case b.outReady <- struct{}{}:
		default:
		}
	}
}

// ReadByte implements hc05.Registers. It returns 0 when the inbound FIFO
// is empty.
func (b *Block) ReadByte() byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	v, _ := b.in.pop()
	return v
}

// ResetFIFO implements hc05.Registers.
func (b *Block) ResetFIFO(mask uint32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if mask&hc05.ResetFIFOIn != 0 {
		b.in.reset()
	}
	if mask&hc05.ResetFIFOOut != 0 {
		b.out.reset()
	}
}

// Ctrl implements hc05.Registers.
func (b *Block) Ctrl() uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.ctrl
}

// SetCtrl implements hc05.Registers.
func (b *Block) SetCtrl(val uint32) {
	b.lock.Lock()
	b.ctrl = val
	b.lock.Unlock()
}

// BaudRate implements hc05.Registers.
func (b *Block) BaudRate() hc05.BaudRate {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.baud
}

// SetBaudRate implements hc05.Registers.
func (b *Block) SetBaudRate(rate hc05.BaudRate) {
	b.lock.Lock()
	b.baud = rate
	fn := b.OnBaudRate
	b.lock.Unlock()
	if fn != nil {
		fn(rate)
	}
}

// Enabled indicates the UART is on.
func (b *Block) Enabled() bool {
	return b.Ctrl()&hc05.UARTOn != 0
}

// OutboundReady returns a coalesced notification sent whenever bytes are
// written to the outbound FIFO. Receivers must re-check after waking.
func (b *Block) OutboundReady() <-chan struct{} {
	return b.outReady
}

// TakeOutbound removes up to max bytes (all when max <= 0) from the
// outbound FIFO, as the UART transmitter does.
func (b *Block) TakeOutbound(max int) []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	n := b.out.len()
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	p := make([]byte, n)
	for i := range p {
		p[i], _ = b.out.pop()
	}
	return p
}

// Feed pushes received bytes into the inbound FIFO. Bytes which don't fit
// are dropped, as the hardware does. It returns the number accepted.
func (b *Block) Feed(p []byte) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	for n, v := range p {
		if !b.in.push(v) {
			b.dropped += uint64(len(p) - n)
			return n
		}
	}
	return len(p)
}

// Dropped returns the number of bytes lost to full FIFOs.
func (b *Block) Dropped() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.dropped
}
