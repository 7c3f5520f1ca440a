// Package telemetry publishes device reports over MQTT, so the speed and
// session diagnostics are observable beyond the serial line itself.
package telemetry

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Topics relative to the configured prefix.
const (
	TopicStatus  = "status"
	TopicSpeed   = "speed"
	TopicSession = "session"
)

// Report is one speed report.
type Report struct {
	Device string `json:"device"`
	BPS    uint64 `json:"bps"`
	At     int64  `json:"at"`
}

// Session summarizes one completed flush.
type Session struct {
	Device  string `json:"device"`
	Echoed  int    `json:"echoed"`
	Dropped uint64 `json:"dropped"`
	At      int64  `json:"at"`
}

// Status announces device lifecycle.
type Status struct {
	Device string `json:"device"`
	State  string `json:"state"`
	At     int64  `json:"at"`
}

// ClientOptionsFromURL builds paho options and a topic prefix from an URL
// of the form mqtt://host:port/prefix. Scheme mqtt (or empty) maps to tcp.
func ClientOptionsFromURL(brokerURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}

	prefix := strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	} else {
		opts.SetClientID("echoback-" + DeviceID())
	}
	return opts, prefix, nil
}

// Publisher pushes engine events to an MQTT broker. It implements
// echo.Monitor; callbacks are fire-and-forget (QoS 0, no token wait) so
// the engine loop never blocks on the broker.
type Publisher struct {
	Client      paho.Client
	TopicPrefix string

	device string
}

// NewPublisher creates a Publisher from a broker URL.
func NewPublisher(brokerURL string) (*Publisher, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	p := &Publisher{TopicPrefix: prefix, device: DeviceID()}
	opts.SetOnConnectHandler(func(paho.Client) {
		glog.Info("telemetry connected")
	})
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		glog.Warningf("telemetry connection lost: %v", err)
	})
	p.Client = paho.NewClient(opts)
	return p, nil
}

// Connect connects to the broker and waits for the result.
func (p *Publisher) Connect() error {
	token := p.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	p.Client.Disconnect(250)
	return nil
}

// OnReady implements echo.Monitor.
func (p *Publisher) OnReady() {
	p.publish(TopicStatus, Status{Device: p.device, State: "ready", At: now()})
}

// OnReport implements echo.Monitor.
func (p *Publisher) OnReport(bps uint64) {
	p.publish(TopicSpeed, Report{Device: p.device, BPS: bps, At: now()})
}

// OnFlush implements echo.Monitor.
func (p *Publisher) OnFlush(echoed int, dropped uint64) {
	p.publish(TopicSession, Session{Device: p.device, Echoed: echoed, Dropped: dropped, At: now()})
}

func (p *Publisher) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("telemetry encode %s: %v", topic, err)
		return
	}
	glog.V(2).Infof("PUB %q %s", p.TopicPrefix+topic, payload)
	p.Client.Publish(p.TopicPrefix+topic, 0, false, payload)
}

func now() int64 {
	return time.Now().Unix()
}
