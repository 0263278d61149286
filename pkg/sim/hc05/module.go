package hc05

import (
	"bytes"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Module emulates the command interpreter of an HC-05 in AT mode.
// Every "\r\n" terminated line is recorded and answered. After AT+RESET
// is acknowledged the module is in transparent mode and further bytes go
// to Transparent.
type Module struct {
	// Replies maps a command prefix to the reply line (without "\r\n").
	// The longest matching prefix wins; unmatched commands get "OK".
	Replies map[string]string
	// Transparent receives data-mode traffic, may be nil.
	Transparent Peer

	lock        sync.Mutex
	line        []byte
	commands    []string
	transparent bool
}

// Receive implements Peer.
func (m *Module) Receive(p []byte) []byte {
	m.lock.Lock()
	defer m.lock.Unlock()
	var out []byte
	for n, b := range p {
		if m.transparent {
			if m.Transparent != nil {
				out = append(out, m.Transparent.Receive(p[n:])...)
			}
			return out
		}
		m.line = append(m.line, b)
		if !bytes.HasSuffix(m.line, []byte("\r\n")) {
			continue
		}
		cmd := string(m.line[:len(m.line)-2])
		m.line = m.line[:0]
		m.commands = append(m.commands, cmd)
		reply := m.replyTo(cmd)
		glog.V(3).Infof("sim: AT %q -> %q", cmd, reply)
		out = append(out, reply...)
		out = append(out, '\r', '\n')
		if cmd == "AT+RESET" && strings.HasPrefix(reply, "OK") {
			m.transparent = true
		}
	}
	return out
}

func (m *Module) replyTo(cmd string) string {
	reply, matched := "OK", -1
	for prefix, r := range m.Replies {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > matched {
			reply, matched = r, len(prefix)
		}
	}
	return reply
}

// Commands returns the commands received so far.
func (m *Module) Commands() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]string(nil), m.commands...)
}

// InTransparentMode indicates AT+RESET has been acknowledged.
func (m *Module) InTransparentMode() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.transparent
}

// Capture records everything it receives and replies nothing.
type Capture struct {
	lock sync.Mutex
	data []byte
}

// Receive implements Peer.
func (c *Capture) Receive(p []byte) []byte {
	c.lock.Lock()
	c.data = append(c.data, p...)
	c.lock.Unlock()
	return nil
}

// Bytes returns a copy of the captured bytes.
func (c *Capture) Bytes() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]byte(nil), c.data...)
}

// Lines splits the captured bytes after each "\r\n", terminator included.
// An unterminated tail is returned as the last element.
func (c *Capture) Lines() []string {
	data := string(c.Bytes())
	var lines []string
	for len(data) > 0 {
		n := strings.Index(data, "\r\n")
		if n < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:n+2])
		data = data[n+2:]
	}
	return lines
}

// LineLogger logs every "\r\n" terminated line it receives.
type LineLogger struct {
	Prefix string

	lock sync.Mutex
	line []byte
}

// Receive implements Peer.
func (l *LineLogger) Receive(p []byte) []byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, b := range p {
		l.line = append(l.line, b)
		if bytes.HasSuffix(l.line, []byte("\r\n")) {
			glog.Infof("%s%s", l.Prefix, l.line[:len(l.line)-2])
			l.line = l.line[:0]
		}
	}
	return nil
}
