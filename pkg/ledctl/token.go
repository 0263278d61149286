// Package ledctl is the text protocol between the joystick node and the
// LED node once the radios are paired: OFF, START, STOP and R/G/B<n>
// tokens, each terminated by "\r\n".
package ledctl

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	fx "github.com/robotalks/btlink/pkg/framework"
)

// Kind is the kind of a token.
type Kind int

// Token kinds.
const (
	Off Kind = iota
	Start
	Stop
	Red
	Green
	Blue
)

var (
	// ErrMalformedToken is returned by ParseToken for unknown input.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSessionOff is returned by Producer.Tick after sending OFF. It
	// stops the loop driving the producer.
	ErrSessionOff = fmt.Errorf("session off: %w", fx.ErrStopLoop)
)

var channelLetters = map[byte]Kind{
	'R': Red,
	'G': Green,
	'B': Blue,
}

// Token is one application message.
type Token struct {
	Kind  Kind
	Value int
}

// Channel creates a color token.
func Channel(kind Kind, value int) Token {
	return Token{Kind: kind, Value: value}
}

// IsChannel indicates the token carries a color value.
func (t Token) IsChannel() bool {
	return t.Kind == Red || t.Kind == Green || t.Kind == Blue
}

// String implements fmt.Stringer, terminator excluded.
func (t Token) String() string {
	switch t.Kind {
	case Off:
		return "OFF"
	case Start:
		return "START"
	case Stop:
		return "STOP"
	case Red:
		return "R" + strconv.Itoa(t.Value)
	case Green:
		return "G" + strconv.Itoa(t.Value)
	case Blue:
		return "B" + strconv.Itoa(t.Value)
	}
	return fmt.Sprintf("Token(%d)", int(t.Kind))
}

// Encode returns the wire form including "\r\n".
func (t Token) Encode() []byte {
	return []byte(t.String() + "\r\n")
}

// ParseToken parses one received line, terminator included.
// Control tokens must match the whole line, e.g. "STOPPED\r\n" is
// malformed. Channel values are not range checked.
func ParseToken(line []byte) (Token, error) {
	switch string(line) {
	case "OFF\r\n":
		return Token{Kind: Off}, nil
	case "START\r\n":
		return Token{Kind: Start}, nil
	case "STOP\r\n":
		return Token{Kind: Stop}, nil
	}
	body := bytes.TrimSuffix(line, []byte("\r\n"))
	if len(body) < 2 {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, line)
	}
	kind, ok := channelLetters[body[0]]
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, line)
	}
	// the whole remainder must be the number, no padding or suffix
	val, err := strconv.Atoi(string(body[1:]))
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, line)
	}
	return Token{Kind: kind, Value: val}, nil
}
