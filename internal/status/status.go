// Package status provides a thread-safe status tracker for the holter-sim
// daemon. The engine writes it once per tick; the HTTP server and websocket
// feed read it from their own goroutines.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	DeviceName       string
	FirmwareVersion  string
	SampleRateHz     float64
	SamplesPerPacket int
	PacketIntervalMs int64
	Transport        string
	Broker           string
	HTTPAddr         string
}

// Snapshot is a point-in-time view of simulator state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	SessionActive  bool
	RateBPM        float64
	RRSamples      float64
	BatteryPercent uint8
	Ectopic        bool
	PacketsSent    uint64
	Beats          uint64
	LinkConnected  bool
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the per-tick simulator state. Called from the engine loop.
func (t *Tracker) Update(session bool, rateBPM, rrSamples float64, battery uint8, ectopic bool, packets, beats uint64) {
	t.mu.Lock()
	t.snap.SessionActive = session
	t.snap.RateBPM = rateBPM
	t.snap.RRSamples = rrSamples
	t.snap.BatteryPercent = battery
	t.snap.Ectopic = ectopic
	t.snap.PacketsSent = packets
	t.snap.Beats = beats
	t.mu.Unlock()
}

// SetLinkConnected sets the broker link state.
func (t *Tracker) SetLinkConnected(connected bool) {
	t.mu.Lock()
	t.snap.LinkConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
