package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05/at"
	"github.com/robotalks/btlink/pkg/joystick"
	"github.com/robotalks/btlink/pkg/ledctl"
	"github.com/robotalks/btlink/pkg/node"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

var interval = 50 * time.Millisecond

func init() {
	at.Default().Role = at.Master
	node.SetupFlags()
	joystick.SetupFlags()
	flag.DurationVar(&interval, "interval", interval, "Sampling interval.")
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
		env.Module.Transparent = &sim.LineLogger{Prefix: "slave <- "}
	}

	fmt.Println("PRESS START TO STREAM, PAUSE TO STOP, BOTH TO TURN OFF")

	js := joystick.NewConfig().NewController()
	producer := ledctl.NewProducer(env.Link, js)
	loop := fx.NewLoop().WithInterval(interval).Add(js, producer)
	err := loop.Run(ctx)
	cancel()
	if perr := pumps.Wait(); perr != nil {
		glog.Error(perr)
	}
	if err != nil && err != context.Canceled {
		glog.Exit(err)
	}
	fmt.Println("DONE")
}
