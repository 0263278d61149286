// Package hc05 simulates HC-05 modules sitting behind a software FIFO
// register block, for host tests and dry runs of the node commands.
package hc05

import (
	"github.com/robotalks/btlink/pkg/hc05/swfifo"
)

// Peer is the far side of the UART. Receive gets the bytes the node
// transmitted and returns the bytes to deliver back to the node.
type Peer interface {
	Receive(p []byte) []byte
}

// ReceiveFunc is the func form of Peer.
type ReceiveFunc func(p []byte) []byte

// Receive implements Peer.
func (f ReceiveFunc) Receive(p []byte) []byte {
	return f(p)
}

// Device is a register block whose transmitted bytes are handed to a Peer
// immediately, so the outbound FIFO only fills while the UART is off.
type Device struct {
	*swfifo.Block
	Peer Peer
}

// NewDevice creates a Device with default FIFO depths.
func NewDevice(peer Peer) *Device {
	return &Device{Block: swfifo.NewDefault(), Peer: peer}
}

// WriteByte implements hc05.Registers.
func (d *Device) WriteByte(b byte) {
	d.Block.WriteByte(b)
	d.pump()
}

// SetCtrl implements hc05.Registers. Turning the UART on flushes what
// was queued while it was off.
func (d *Device) SetCtrl(val uint32) {
	d.Block.SetCtrl(val)
	d.pump()
}

func (d *Device) pump() {
	if !d.Enabled() {
		return
	}
	out := d.TakeOutbound(0)
	if len(out) == 0 || d.Peer == nil {
		return
	}
	if in := d.Peer.Receive(out); len(in) > 0 {
		d.Feed(in)
	}
}

// Loopback echoes every byte back.
type Loopback struct{}

// Receive implements Peer.
func (Loopback) Receive(p []byte) []byte {
	return append([]byte(nil), p...)
}

// Connect wires two devices so each one's transmitted bytes arrive in
// the other's inbound FIFO.
func Connect(a, b *Device) {
	a.Peer = ReceiveFunc(func(p []byte) []byte {
		b.Feed(p)
		return nil
	})
	b.Peer = ReceiveFunc(func(p []byte) []byte {
		a.Feed(p)
		return nil
	})
}
