package view

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/btlink/pkg/pgm"
)

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewConfig().NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	img := &pgm.Frame{Cols: 2, Rows: 1, Max: 9, Pix: []uint16{3, 9}}
	require.NoError(t, hub.Broadcast(img))
	var msg string
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	require.Equal(t, "P2\n2 1\n9\n3 9", msg)

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
	require.NoError(t, hub.Broadcast(img))
}
