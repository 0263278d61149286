package ledctl

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/btlink/pkg/framework"
)

// Switch identifies a push button on the joystick node.
type Switch int

// Switches. Pressing both while disarmed turns the session off.
const (
	StartSwitch Switch = iota
	PauseSwitch
)

// Axes sampled for the color channels, in send order.
const (
	RedAxis = iota
	GreenAxis
	BlueAxis
)

// Sampler reads the joystick node inputs.
type Sampler interface {
	// Axis returns the raw 12-bit sample of an axis.
	Axis(ch int) (uint16, error)
	// Pressed returns the state of a switch.
	Pressed(sw Switch) (bool, error)
}

// Sender is the outbound side of the link.
type Sender interface {
	MustSendMessage(ctx context.Context, p []byte) error
}

// Producer streams color tokens from the sampler, once per tick.
type Producer struct {
	Link    Sender
	Sampler Sampler

	armed bool
	off   bool
}

// NewProducer creates a disarmed Producer.
func NewProducer(link Sender, sampler Sampler) *Producer {
	return &Producer{Link: link, Sampler: sampler}
}

// Armed indicates color tokens are being streamed.
func (p *Producer) Armed() bool {
	return p.armed
}

// AddToLoop implements LoopAdder.
func (p *Producer) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, p)
}

// Control implements Controller.
func (p *Producer) Control(cc fx.ControlContext) error {
	return p.Tick(cc.Context())
}

// Tick runs one iteration. Disarmed, it waits for the start switch or
// both switches (OFF). Armed, the pause switch sends STOP and the axes
// are sampled and sent as R, G, B in that order. The samples of the
// tick which pressed pause are still sent. After OFF every call
// returns ErrSessionOff.
func (p *Producer) Tick(ctx context.Context) error {
	if p.off {
		return ErrSessionOff
	}
	if !p.armed {
		start, err := p.Sampler.Pressed(StartSwitch)
		if err != nil {
			return err
		}
		pause, err := p.Sampler.Pressed(PauseSwitch)
		if err != nil {
			return err
		}
		switch {
		case start && pause:
			if err := p.send(ctx, Token{Kind: Off}); err != nil {
				return err
			}
			p.off = true
			glog.Info("session off")
			return ErrSessionOff
		case start:
			if err := p.send(ctx, Token{Kind: Start}); err != nil {
				return err
			}
			p.armed = true
			glog.Info("armed")
		}
		return nil
	}

	pause, err := p.Sampler.Pressed(PauseSwitch)
	if err != nil {
		return err
	}
	if pause {
		if err := p.send(ctx, Token{Kind: Stop}); err != nil {
			return err
		}
		p.armed = false
		glog.Info("paused")
	}
	for n, kind := range []Kind{Red, Green, Blue} {
		raw, err := p.Sampler.Axis(RedAxis + n)
		if err != nil {
			return err
		}
		if err := p.send(ctx, Channel(kind, int(raw>>4))); err != nil {
			return err
		}
	}
	return nil
}

func (p *Producer) send(ctx context.Context, tok Token) error {
	return p.Link.MustSendMessage(ctx, tok.Encode())
}
