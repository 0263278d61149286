package mqtt

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/btlink/pkg/ledctl"
)

// ErrPublishTimeout is returned when the broker doesn't acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
}

// Config defines the broker connection of the LED mirror.
type Config struct {
	// BrokerURL is empty to disable mirroring.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
	// Name is the topic under the prefix, also used as client id.
	Name string
}

var defaultConfig = Config{}

func init() {
	if val := os.Getenv("BTLINK_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL to mirror the LED, empty to disable.")
	flag.StringVar(&defaultConfig.Name, "led-name", defaultConfig.Name, "LED name, defaults to the machine id.")
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

// Enabled indicates a broker is configured.
func (c *Config) Enabled() bool {
	return c.BrokerURL != ""
}

// LEDName returns Name or the machine id.
func (c *Config) LEDName() (string, error) {
	if c.Name != "" {
		return c.Name, nil
	}
	id, err := machineid.ProtectedID("btlink")
	if err != nil {
		return "", fmt.Errorf("machine id: %w", err)
	}
	return "led-" + id[:12], nil
}

// NewQueue creates a Queue for the broker. The retained state topic is
// cleared by the broker when the client goes away.
func (c *Config) NewQueue() (*Queue, string, error) {
	name, err := c.LEDName()
	if err != nil {
		return nil, "", err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(c.BrokerURL)
	if err != nil {
		return nil, "", err
	}
	if opts.ClientID == "" {
		opts.SetClientID("btlink:" + name)
	}
	opts.SetBinaryWill(topicPrefix+StateTopic(name), nil, 1, true)
	return NewQueue(opts, topicPrefix), name, nil
}

// StateTopic is where the state of the named LED is published.
func StateTopic(name string) string {
	return name + "/state"
}

// LED mirrors every change of an inner LED as a retained PixelState.
// Publish failures are logged, they never fail the inner LED.
type LED struct {
	Inner     ledctl.LED
	Publisher Publisher
	Topic     string

	lock  sync.Mutex
	state PixelState
}

// NewLED creates a mirroring LED.
func NewLED(inner ledctl.LED, pub Publisher, name string) *LED {
	return &LED{
		Inner:     inner,
		Publisher: pub,
		Topic:     StateTopic(name),
		state:     PixelState{Intensity: int32(inner.Intensity())},
	}
}

// WritePixel implements ledctl.LED.
func (l *LED) WritePixel(r, g, b int) error {
	if err := l.Inner.WritePixel(r, g, b); err != nil {
		return err
	}
	l.update(func(s *PixelState) {
		s.Red, s.Green, s.Blue = int32(r), int32(g), int32(b)
	})
	return nil
}

// SetIntensity implements ledctl.LED.
func (l *LED) SetIntensity(v int) error {
	if err := l.Inner.SetIntensity(v); err != nil {
		return err
	}
	l.update(func(s *PixelState) { s.Intensity = int32(v) })
	return nil
}

// Intensity implements ledctl.LED.
func (l *LED) Intensity() int {
	return l.Inner.Intensity()
}

// State returns the last published state.
func (l *LED) State() PixelState {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.state
}

func (l *LED) update(fn func(*PixelState)) {
	l.lock.Lock()
	fn(&l.state)
	l.state.Seq++
	state := l.state
	l.lock.Unlock()
	payload, err := state.Encode()
	if err != nil {
		glog.Errorf("encode %s: %v", state.String(), err)
		return
	}
	if err := l.Publisher.Publish(l.Topic, payload, true); err != nil {
		glog.Warningf("publish %s: %v", l.Topic, err)
		return
	}
	glog.V(3).Infof("PUB %s %s", l.Topic, state.String())
}
