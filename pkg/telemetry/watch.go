package telemetry

import (
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Watcher is a subscription to all telemetry topics under a prefix.
type Watcher struct {
	Client      paho.Client
	TopicPrefix string
}

// Handler is the callback for watched messages. The topic has the prefix
// stripped.
type Handler func(topic string, payload []byte)

// Watch connects to the broker and subscribes to every topic under the
// URL's prefix.
func Watch(brokerURL string, handler Handler) (*Watcher, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	w := &Watcher{TopicPrefix: prefix}
	opts.SetOnConnectHandler(func(c paho.Client) {
		glog.V(1).Infof("SUB %q", prefix+"#")
		c.Subscribe(prefix+"#", 0, func(c paho.Client, msg paho.Message) {
			topic := msg.Topic()
			if len(topic) >= len(prefix) {
				topic = topic[len(prefix):]
			}
			handler(topic, msg.Payload())
		})
	})
	w.Client = paho.NewClient(opts)
	token := w.Client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return w, nil
}

// Close implements io.Closer.
func (w *Watcher) Close() error {
	w.Client.Disconnect(250)
	return nil
}
