package transport

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink publishes to an MQTT broker and watches the session topic for
// collector presence.
type MQTTSink struct {
	client paho.Client
	topics Topics
	events chan Event
}

// NewMQTTSink connects to the broker and subscribes to the session topic.
// The collector publishes "online" there (and "offline" via its LWT), which
// drives the engine's connect/disconnect lifecycle.
func NewMQTTSink(broker, clientID, prefix string) (*MQTTSink, error) {
	s := &MQTTSink{
		topics: TopicsFor(prefix),
		events: make(chan Event, 16),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return s, nil
}

// onConnect runs on every (re)connect so the session subscription survives
// broker restarts.
func (s *MQTTSink) onConnect(c paho.Client) {
	token := c.Subscribe(s.topics.Session, 1, s.onSession)
	go func() {
		if token.Wait(); token.Error() != nil {
			log.Printf("mqtt: subscribe %s: %v", s.topics.Session, token.Error())
		}
	}()
}

// onSession runs on the paho callback goroutine. It only queues an event;
// all state changes happen on the scheduler's tick.
func (s *MQTTSink) onSession(_ paho.Client, msg paho.Message) {
	s.push(Event{Connected: string(msg.Payload()) == SessionOnline})
}

func (s *MQTTSink) onConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
	// Broker gone means the collector is unreachable too.
	s.push(Event{Connected: false})
}

func (s *MQTTSink) push(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("mqtt: event queue full, dropping %+v", ev)
	}
}

// Publish sends without waiting on the broker. QoS 0: the stream is
// perishable and the caller must not stall. Firmware info is retained so a
// late subscriber still sees it.
func (s *MQTTSink) Publish(ch Channel, payload []byte) error {
	retained := ch == ChannelFirmware
	s.client.Publish(s.topics.For(ch), 0, retained, payload)
	return nil
}

// Announce publishes the retained device record to the advertise topic.
func (s *MQTTSink) Announce(payload []byte) error {
	s.client.Publish(s.topics.Advertise, 1, true, payload)
	return nil
}

// Events returns the session lifecycle queue.
func (s *MQTTSink) Events() <-chan Event {
	return s.events
}

// IsConnected reports broker link health.
func (s *MQTTSink) IsConnected() bool {
	return s.client.IsConnected()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000) // milliseconds to flush in-flight work
	return nil
}
