package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/btlink/pkg/framework"
	"github.com/robotalks/btlink/pkg/hc05/at"
	"github.com/robotalks/btlink/pkg/led/mqtt"
	"github.com/robotalks/btlink/pkg/ledctl"
	"github.com/robotalks/btlink/pkg/node"
	sim "github.com/robotalks/btlink/pkg/sim/hc05"
)

var (
	intensity = 32
	simFeed   = "START,R255,G64,B0,STOP,OFF"
)

func init() {
	at.Default().Role = at.Slave
	node.SetupFlags()
	mqtt.SetupFlags()
	flag.IntVar(&intensity, "intensity", intensity, "Initial LED intensity.")
	flag.StringVar(&simFeed, "sim-feed", simFeed, "Comma separated messages the simulated master sends.")
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

	var led ledctl.LED = ledctl.NewLogLED(intensity)
	if conf := mqtt.Default(); conf.Enabled() {
		q, name, err := conf.NewQueue()
		if err != nil {
			glog.Exit(err)
		}
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			glog.Exitf("mqtt connect: %v", token.Error())
		}
		defer q.Close()
		glog.Infof("mirroring %s to %s", name, conf.BrokerURL)
		led = mqtt.NewLED(led, q, name)
	}

	if env.Device != nil {
		go feed(ctx, env.Device, simFeed)
	}

	err := ledctl.NewConsumer(env.Link, led).Run(ctx)
	cancel()
	if perr := pumps.Wait(); perr != nil {
		glog.Error(perr)
	}
	if err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}

// feed plays the part of the master on the simulated module.
func feed(ctx context.Context, dev *sim.Device, script string) {
	for _, msg := range strings.Split(script, ",") {
		tok, err := ledctl.ParseToken([]byte(msg + "\r\n"))
		if err != nil {
			glog.Warningf("sim-feed: %v", err)
			continue
		}
		for p := tok.Encode(); len(p) > 0; {
			p = p[dev.Feed(p):]
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}
