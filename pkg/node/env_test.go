package node

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/btlink/pkg/hc05"
	"github.com/robotalks/btlink/pkg/hc05/at"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

func TestSimEnv(t *testing.T) {
	conf := NewConfig()
	conf.Backend = BackendSim
	conf.Timeout = 5 * time.Second
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.NotNil(t, env.Device)
	require.Empty(t, env.Start(context.Background()).Runners)

	var data sim.Capture
	env.Module.Transparent = &data
	env.Configure(context.Background())
	require.Equal(t, at.Configured, env.Session.State())
	require.Equal(t, hc05.B115200, env.Link.BaudRate())
	require.True(t, env.Module.InTransparentMode())

	require.NoError(t, env.Link.MustSendMessage(context.Background(), []byte("START\r\n")))
	require.Equal(t, []string{"START\r\n"}, data.Lines())
}

func TestUnknownBackend(t *testing.T) {
	conf := NewConfig()
	conf.Backend = "carrier-pigeon"
	_, err := conf.NewEnv()
	require.Error(t, err)
}
