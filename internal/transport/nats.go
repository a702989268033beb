package transport

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes to a NATS server. Topic paths map to subjects by
// swapping slashes for dots.
type NATSSink struct {
	nc       *nats.Conn
	sub      *nats.Subscription
	subjects Topics
	events   chan Event
}

// NewNATSSink connects to the server and subscribes to the session subject.
func NewNATSSink(url, name, prefix string) (*NATSSink, error) {
	nc, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	s := &NATSSink{
		nc:       nc,
		subjects: subjectsFor(prefix),
		events:   make(chan Event, 16),
	}

	s.sub, err = nc.Subscribe(s.subjects.Session, func(msg *nats.Msg) {
		ev := Event{Connected: string(msg.Data) == SessionOnline}
		select {
		case s.events <- ev:
		default:
			log.Printf("nats: event queue full, dropping %+v", ev)
		}
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.subjects.Session, err)
	}

	return s, nil
}

func subjectsFor(prefix string) Topics {
	t := TopicsFor(prefix)
	t.ECG = subject(t.ECG)
	t.Battery = subject(t.Battery)
	t.Firmware = subject(t.Firmware)
	t.Session = subject(t.Session)
	t.Advertise = subject(t.Advertise)
	return t
}

func subject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// Publish is asynchronous by nature in NATS; it never waits on the server.
func (s *NATSSink) Publish(ch Channel, payload []byte) error {
	return s.nc.Publish(s.subjects.For(ch), payload)
}

// Announce publishes the device record to the advertise subject.
func (s *NATSSink) Announce(payload []byte) error {
	return s.nc.Publish(s.subjects.Advertise, payload)
}

// Events returns the session lifecycle queue.
func (s *NATSSink) Events() <-chan Event {
	return s.events
}

// IsConnected reports server link health.
func (s *NATSSink) IsConnected() bool {
	return s.nc.IsConnected()
}

// Close drains the subscription and closes the connection.
func (s *NATSSink) Close() error {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	return s.nc.Drain()
}
