// Package view pushes captured frames to browsers over websocket, one
// PGM text message per frame.
package view

import (
	"bytes"
	"context"
	"flag"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/pgm"
)

// Config of the viewer endpoint.
type Config struct {
	// Addr to listen on, empty disables the viewer.
	Addr string
	// Backlog is the number of frames queued per client before frames
	// are dropped for it.
	Backlog int
}

var defaultConfig = Config{Backlog: 4}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Addr, "view-addr", defaultConfig.Addr, "Serve frames over websocket on this address, e.g. :8080.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Hub tracks websocket clients and broadcasts frames to them.
type Hub struct {
	Config *Config

	lock    sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates a Hub.
func (c *Config) NewHub() *Hub {
	return &Hub{Config: c, clients: make(map[*websocket.Conn]chan []byte)}
}

// Handler serves the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Broadcast queues the frame for every client.
func (h *Hub) Broadcast(img pgm.Image) error {
	var buf bytes.Buffer
	if err := pgm.Encode(&buf, img); err != nil {
		return err
	}
	data := buf.Bytes()
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			glog.V(2).Infof("view %s: frame dropped", conn.Request().RemoteAddr)
		}
	}
	return nil
}

// Run implements Runnable, serving on Config.Addr until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Config.Addr)
	if err != nil {
		return err
	}
	glog.Infof("view on ws://%s/", ln.Addr())
	srv := &http.Server{Handler: h.Handler()}
	err = fx.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (h *Hub) serve(conn *websocket.Conn) {
	backlog := h.Config.Backlog
	if backlog <= 0 {
		backlog = 1
	}
	ch := make(chan []byte, backlog)
	h.lock.Lock()
	h.clients[conn] = ch
	h.lock.Unlock()
	defer h.remove(conn)

	// clients never talk, a failed read means they are gone
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		h.remove(conn)
	}()

	for data := range ch {
		if err := websocket.Message.Send(conn, string(data)); err != nil {
			glog.V(1).Infof("view %s: %v", conn.Request().RemoteAddr, err)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
}
