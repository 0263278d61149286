// Package pgm sends grayscale frames as plain PGM ("P2") text over the
// link, for the thermal camera node.
package pgm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/glog"
)

// Image is a frame of unsigned samples.
type Image interface {
	Bounds() (cols, rows int)
	MaxValue() int
	At(col, row int) uint16
}

// Link is the outbound side of the radio.
type Link interface {
	MustSendMessage(ctx context.Context, p []byte) error
	MustSendByte(ctx context.Context, b byte) error
}

// Sender dumps frames over a Link.
type Sender struct {
	Link Link
}

// NewSender creates a Sender.
func NewSender(link Link) *Sender {
	return &Sender{Link: link}
}

// Header returns "P2\n<cols> <rows>\n<max>", without a trailing newline.
// Every row starts with its own newline.
func Header(img Image) string {
	cols, rows := img.Bounds()
	return fmt.Sprintf("P2\n%d %d\n%d", cols, rows, img.MaxValue())
}

// Send writes the header as one message, then for each row a newline
// followed by the samples separated by single spaces. Each token waits
// for room in the FIFO. There is no end marker.
func (s *Sender) Send(ctx context.Context, img Image) error {
	if err := s.Link.MustSendMessage(ctx, []byte(Header(img))); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	cols, rows := img.Bounds()
	buf := make([]byte, 0, 8)
	for row := 0; row < rows; row++ {
		if err := s.Link.MustSendByte(ctx, '\n'); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		for col := 0; col < cols; col++ {
			if col > 0 {
				if err := s.Link.MustSendByte(ctx, ' '); err != nil {
					return fmt.Errorf("row %d: %w", row, err)
				}
			}
			buf = strconv.AppendUint(buf[:0], uint64(img.At(col, row)), 10)
			if err := s.Link.MustSendMessage(ctx, buf); err != nil {
				return fmt.Errorf("row %d col %d: %w", row, col, err)
			}
		}
	}
	glog.V(1).Infof("sent %dx%d frame", cols, rows)
	return nil
}

// Encode writes the same bytes Send transmits.
func Encode(w io.Writer, img Image) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header(img))
	cols, rows := img.Bounds()
	for row := 0; row < rows; row++ {
		bw.WriteByte('\n')
		for col := 0; col < cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatUint(uint64(img.At(col, row)), 10))
		}
	}
	return bw.Flush()
}

// Sensor frame geometry.
const (
	SensorCols     = 80
	SensorRows     = 60
	SensorMaxValue = 0x3fff
)

// Gradient is a synthetic frame standing in for the sensor.
type Gradient struct {
	Cols, Rows int
	Max        int
	// Phase shifts the pattern, so successive captures differ.
	Phase int
}

// NewGradient creates a Gradient with the sensor geometry.
func NewGradient() *Gradient {
	return &Gradient{Cols: SensorCols, Rows: SensorRows, Max: SensorMaxValue}
}

// Bounds implements Image.
func (g *Gradient) Bounds() (int, int) {
	return g.Cols, g.Rows
}

// MaxValue implements Image.
func (g *Gradient) MaxValue() int {
	return g.Max
}

// At implements Image.
func (g *Gradient) At(col, row int) uint16 {
	span := g.Cols + g.Rows - 2
	if span <= 0 {
		return 0
	}
	pos := (col + row + g.Phase) % (span + 1)
	return uint16(pos * g.Max / span)
}

// Frame is an in-memory Image.
type Frame struct {
	Cols, Rows int
	Max        int
	Pix        []uint16
}

// Bounds implements Image.
func (f *Frame) Bounds() (int, int) {
	return f.Cols, f.Rows
}

// MaxValue implements Image.
func (f *Frame) MaxValue() int {
	return f.Max
}

// At implements Image.
func (f *Frame) At(col, row int) uint16 {
	return f.Pix[row*f.Cols+col]
}
