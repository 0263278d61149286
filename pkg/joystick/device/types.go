// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

// Path returns the device file of the joystick index.
func Path(index int) string {
	return fmt.Sprintf("/dev/input/js%d", index)
}

const (
	eventSize = 8

	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

// DecodeEvent decodes a struct js_event: u32 time, s16 value, u8 type,
// u8 number, little endian.
func DecodeEvent(p []byte) (Event, error) {
	if len(p) < eventSize {
		return nil, fmt.Errorf("short event: %d bytes", len(p))
	}
	ev := event{
		Time:   binary.LittleEndian.Uint32(p[0:]),
		Value:  int16(binary.LittleEndian.Uint16(p[4:])),
		Type:   p[6],
		Number: p[7],
	}
	switch ev.Type &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}, nil
	case evAXIS:
		return &axisEvent{event: ev}, nil
	}
	return &ev, nil
}

type event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func (e *event) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e *event) Index() int {
	return int(e.Number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.event.Value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.event.Value != 0
}
