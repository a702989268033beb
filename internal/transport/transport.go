// Package transport delivers simulator output to a remote collector.
// The engine sees one Sink interface; real implementations exist for MQTT
// and NATS, and a fake records traffic for tests.
//
// Publishes are fire-and-forget: the engine runs a cooperative single-thread
// scheduler and must never stall on the broker. Session lifecycle flows the
// other way — presence messages from the collector arrive on transport
// callbacks and are queued on a channel that the scheduler drains at the top
// of each tick, so no shared state is ever touched from a callback.
package transport

// Channel identifies a logical output stream.
type Channel string

const (
	ChannelECG      Channel = "ecg"      // binary ECG frames
	ChannelBattery  Channel = "battery"  // single-byte level percent
	ChannelFirmware Channel = "firmware" // firmware version string
)

// Event is a session lifecycle notification from the collector side.
type Event struct {
	Connected bool
}

// Sink is the notification destination the engine publishes to.
type Sink interface {
	// Publish sends payload on the given channel. Implementations must
	// not block waiting for delivery.
	Publish(ch Channel, payload []byte) error

	// Announce publishes the device availability record so a collector
	// can discover the simulator. Called at startup and after each
	// session ends.
	Announce(payload []byte) error

	// Events returns the queue of session lifecycle events. The channel
	// is buffered; the engine drains it once per tick.
	Events() <-chan Event

	// IsConnected reports whether the underlying link to the broker is
	// up. This is link health, not session state.
	IsConnected() bool

	// Close tears down the connection.
	Close() error
}

// Topics derives the full topic set used on the wire from a device prefix,
// e.g. "cardioguard/holter-sim".
type Topics struct {
	ECG       string
	Battery   string
	Firmware  string
	Session   string // collector presence: "online" / "offline"
	Advertise string // retained device announce record
}

// TopicsFor builds the topic set for a prefix.
func TopicsFor(prefix string) Topics {
	return Topics{
		ECG:       prefix + "/ecg",
		Battery:   prefix + "/battery",
		Firmware:  prefix + "/firmware",
		Session:   prefix + "/session",
		Advertise: prefix + "/advertise",
	}
}

// For maps a channel to its topic.
func (t Topics) For(ch Channel) string {
	switch ch {
	case ChannelBattery:
		return t.Battery
	case ChannelFirmware:
		return t.Firmware
	default:
		return t.ECG
	}
}

// SessionOnline is the presence payload a collector publishes when it starts
// consuming; anything else on the session topic means the session ended.
const SessionOnline = "online"
