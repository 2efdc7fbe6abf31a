// Package mqttsink publishes live glove samples to an MQTT broker.
package mqttsink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mastercactapus/glovelink/frame"
)

// Publisher is the part of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type payload struct {
	T int64               `json:"t"`
	V [frame.Channels]int `json:"v"`
}

// DefaultTimeout is used when Sink.Timeout is not positive.
const DefaultTimeout = 50 * time.Millisecond

// Sink publishes each sample as JSON on Topic at QoS 0.
type Sink struct {
	Client  Publisher
	Topic   string
	Timeout time.Duration
}

var _ frame.Sink = Sink{}

func (s Sink) Deliver(smp frame.Sample) error {
	data, err := json.Marshal(payload{T: smp.Timestamp, V: smp.Channels})
	if err != nil {
		return err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	token := s.Client.Publish(s.Topic, 0, false, data)
	if !token.WaitTimeout(timeout) {
		return frame.ErrSinkTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", s.Topic, err)
	}
	return nil
}

// Connect dials broker and returns a connected client.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}
