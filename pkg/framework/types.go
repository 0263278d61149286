package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop, e.g. device events collected
// by a Runnable and consumed by a Controller in the next iteration.
type Message interface{}

// Controller defines the logic executed once per loop iteration.
// Returning an error matching ErrStopLoop ends the loop.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current control iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Iteration is the sequence number of the iteration, from 1.
	Iteration() uint64
	// Messages retrieves messages posted before this iteration started.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 4

// Priority levels, lower runs first in an iteration.
const (
	PrLvSense    int = 0
	PrLvControl  int = 1
	PrLvActuate  int = 2
	PrLvPostProc int = 3
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the tick.
	TriggerNext()
}

// MessageStore provides access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages calls fn on each message. Messages fn returns
	// true for are taken and not seen by later controllers.
	ProcessMessages(fn func(Message) bool)
}
