package transport

// FakeSink records published payloads for test assertions.
type FakeSink struct {
	// Published contains every Publish call in order.
	Published []PublishedMsg

	// Announces contains every Announce payload in order.
	Announces [][]byte

	// PublishError, if set, is returned by Publish.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	events chan Event
}

// PublishedMsg is one recorded Publish call.
type PublishedMsg struct {
	Channel Channel
	Payload []byte
}

// NewFakeSink creates a FakeSink with a buffered event queue.
func NewFakeSink() *FakeSink {
	return &FakeSink{events: make(chan Event, 16)}
}

// Publish records the payload.
func (f *FakeSink) Publish(ch Channel, payload []byte) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.Published = append(f.Published, PublishedMsg{Channel: ch, Payload: cp})
	return nil
}

// Announce records the payload.
func (f *FakeSink) Announce(payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.Announces = append(f.Announces, cp)
	return nil
}

// Events returns the event queue; push into it with PushEvent.
func (f *FakeSink) Events() <-chan Event {
	return f.events
}

// PushEvent queues a session lifecycle event as the broker callback would.
func (f *FakeSink) PushEvent(connected bool) {
	f.events <- Event{Connected: connected}
}

// IsConnected reports the configured link state.
func (f *FakeSink) IsConnected() bool {
	return f.Connected
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.Closed = true
	return nil
}

// OnChannel returns the payloads published to one channel, in order.
func (f *FakeSink) OnChannel(ch Channel) [][]byte {
	var out [][]byte
	for _, m := range f.Published {
		if m.Channel == ch {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Reset clears recorded traffic.
func (f *FakeSink) Reset() {
	f.Published = nil
	f.Announces = nil
	f.PublishError = nil
	f.Closed = false
}
