package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/btlink/pkg/cli/sh"
	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05/at"
	"github.com/robotalks/btlink/pkg/node"
	"github.com/robotalks/btlink/pkg/pgm"
	"github.com/robotalks/btlink/pkg/pgm/view"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

func init() {
	at.Default().Role = at.Slave
	node.SetupFlags()
	view.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()

	env := node.NewConfig().MustNewEnv()
	pumps := env.Start(ctx)
	env.Configure(ctx)
	if env.Module != nil {
		env.Module.Transparent = sim.ReceiveFunc(func(p []byte) []byte {
			glog.V(2).Infof("master <- %d bytes", len(p))
			return nil
		})
	}

	shell := sh.New(ctx, env)
	if conf := view.Default(); conf.Addr != "" {
		hub := conf.NewHub()
		pumps.Go(fx.NamedRun("view", hub))
		shell.Camera.OnFrame = func(f *pgm.Frame) {
			if err := hub.Broadcast(f); err != nil {
				glog.Warningf("view: %v", err)
			}
		}
	}
	shell.Run(flag.Args()...)
	cancel()
	if err := pumps.Wait(); err != nil {
		glog.Error(err)
	}
}
