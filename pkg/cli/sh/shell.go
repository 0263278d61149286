// Package sh provides the interactive shell of the thermal camera node.
package sh

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/btlink/pkg/node"
	"github.com/robotalks/btlink/pkg/pgm"
)

const (
	shellKey = "$shell"
	prompt   = "thermcam > "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&CaptureCmd,
		&SaveCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// Camera streams frames of a sensor over the link.
type Camera struct {
	Sender *pgm.Sender
	Sensor *pgm.Gradient
	// OnFrame is called with every frame sent, may be nil.
	OnFrame func(*pgm.Frame)

	frames int
	last   *pgm.Frame
}

// NewCamera creates a Camera with the default sensor.
func NewCamera(link pgm.Link) *Camera {
	return &Camera{Sender: pgm.NewSender(link), Sensor: pgm.NewGradient()}
}

// Snapshot reads the sensor into a Frame.
func (c *Camera) Snapshot() *pgm.Frame {
	cols, rows := c.Sensor.Bounds()
	f := &pgm.Frame{Cols: cols, Rows: rows, Max: c.Sensor.MaxValue(), Pix: make([]uint16, cols*rows)}
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			f.Pix[r*cols+col] = c.Sensor.At(col, r)
		}
	}
	return f
}

// Capture takes a snapshot, sends it and advances the sensor.
func (c *Camera) Capture(ctx context.Context) (*pgm.Frame, error) {
	f := c.Snapshot()
	if err := c.Sender.Send(ctx, f); err != nil {
		return nil, err
	}
	c.frames++
	c.last = f
	c.Sensor.Phase++
	if c.OnFrame != nil {
		c.OnFrame(f)
	}
	return f, nil
}

// Last returns the frame sent last, or a fresh snapshot when nothing
// was sent yet.
func (c *Camera) Last() *pgm.Frame {
	if c.last != nil {
		return c.last
	}
	return c.Snapshot()
}

// Frames returns the number of frames sent.
func (c *Camera) Frames() int {
	return c.frames
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool

	Shell  *ishell.Shell
	Env    *node.Env
	Camera *Camera
	Ctx    context.Context
}

// New creates a new shell on a configured node.
func New(ctx context.Context, env *node.Env) *Shell {
	s := &Shell{
		Interactive: !evalOnly,

		Shell:  ishell.New(),
		Env:    env,
		Camera: NewCamera(env.Link),
		Ctx:    ctx,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

var (
	// CaptureCmd sends frames to the peer.
	CaptureCmd = ishell.Cmd{
		Name:    "capture",
		Aliases: []string{"c"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			count := 1
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n < 1 {
					c.Err(fmt.Errorf("invalid count %q", c.Args[0]))
					return
				}
				count = n
			}
			for i := 0; i < count; i++ {
				if _, err := s.Camera.Capture(s.Ctx); err != nil {
					c.Err(err)
					return
				}
			}
			c.Printf("%d frame(s) sent\n", count)
		},
	}

	// SaveCmd writes the frame sent last to a file.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("FILE expected"))
				return
			}
			s := ShellFrom(c)
			f, err := os.Create(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			err = pgm.Encode(f, s.Camera.Last())
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// StatusCmd prints the link status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			c.Printf("session %s, baud %s, %d frame(s) sent\n",
				s.Env.Session.State(), s.Env.Link.BaudRate(), s.Camera.Frames())
		},
	}
)
