// Package engine contains the cooperative scheduler that drives the holter
// simulator. Everything runs on one logical thread: the loop goroutine calls
// Tick with the current time, and every periodic task (frame emission,
// battery drain, indicator timeout, operator input, ectopic window) fires
// when its own interval has elapsed. Time is always injected — the package
// never calls time.Now — so tests drive it with a fake clock.
package engine

import (
	"encoding/json"
	"log"
	"time"

	"github.com/firatmio/cardioguard-mg/internal/gpio"
	"github.com/firatmio/cardioguard-mg/internal/packet"
	"github.com/firatmio/cardioguard-mg/internal/sim"
	"github.com/firatmio/cardioguard-mg/internal/status"
	"github.com/firatmio/cardioguard-mg/internal/transport"
)

// Config holds the fixed timing and signal parameters of the simulator.
type Config struct {
	DeviceName      string
	FirmwareVersion string

	SampleRate       float64 // Hz
	SamplesPerPacket int
	Calibration      float64 // mV per LSB

	PacketInterval  time.Duration
	BatteryInterval time.Duration
	IndicatorPulse  time.Duration
	InputInterval   time.Duration
	EctopicWindow   time.Duration

	BatteryStart uint8
	BatteryFloor uint8

	RateStepBPM    float64
	DialHysteresis float64 // normalized dial delta below which changes are ignored
}

// DefaultConfig mirrors the firmware constants the companion parser was
// built against.
func DefaultConfig() Config {
	return Config{
		DeviceName:       "CardioGuard-SIM",
		FirmwareVersion:  "SIM-GO-1.0.0",
		SampleRate:       250,
		SamplesPerPacket: 8,
		Calibration:      packet.DefaultCalibration,
		PacketInterval:   32 * time.Millisecond, // 8 samples at 250 Hz
		BatteryInterval:  2 * time.Minute,
		IndicatorPulse:   50 * time.Millisecond,
		InputInterval:    500 * time.Millisecond,
		EctopicWindow:    10 * time.Second,
		BatteryStart:     95,
		BatteryFloor:     5,
		RateStepBPM:      10,
		DialHysteresis:   50.0 / gpio.DefaultDialScale,
	}
}

// statusLogEvery is the packet cadence of the periodic status log line.
const statusLogEvery = 250

// Engine owns all mutable simulator state. It is not safe for concurrent
// use: Tick, Apply, and Announce must be called from the loop goroutine.
type Engine struct {
	cfg  Config
	gen  *sim.Generator
	sink transport.Sink

	input     gpio.Input     // nil when no operator hardware is wired
	indicator gpio.Indicator // nil when no LED is wired
	tracker   *status.Tracker

	// onFrame, when set, observes every emitted frame (feeds the web UI).
	onFrame func(packet.Frame)

	// Session lifecycle. Counters reset exactly once per
	// disconnected->connected edge, never otherwise.
	connected     bool
	prevConnected bool
	seq           uint16

	battery uint8

	ectopic      bool
	ectopicSince time.Time

	ledOn    bool
	ledSince time.Time

	lastDial float64
	haveDial bool

	// Per-task last-fired stamps; each task is clocked independently.
	lastPacket  time.Time
	lastBattery time.Time
	lastInput   time.Time

	totalPackets uint64
	totalBeats   uint64

	voltBuf []float64
	rawBuf  []int16
}

// New creates an engine. input, indicator, and tracker may be nil.
// start seeds the per-task timers so nothing fires on the first tick.
func New(cfg Config, gen *sim.Generator, sink transport.Sink, input gpio.Input, indicator gpio.Indicator, tracker *status.Tracker, start time.Time) *Engine {
	return &Engine{
		cfg:         cfg,
		gen:         gen,
		sink:        sink,
		input:       input,
		indicator:   indicator,
		tracker:     tracker,
		battery:     cfg.BatteryStart,
		lastPacket:  start,
		lastBattery: start,
		lastInput:   start,
		voltBuf:     make([]float64, cfg.SamplesPerPacket),
		rawBuf:      make([]int16, cfg.SamplesPerPacket),
	}
}

// SetFrameCallback registers an observer for every emitted frame.
func (e *Engine) SetFrameCallback(fn func(packet.Frame)) {
	e.onFrame = fn
}

// Tick advances the simulator to now. It drains queued session events,
// handles connect/disconnect edges, and runs every periodic task whose
// interval has elapsed. Nothing in here blocks.
func (e *Engine) Tick(now time.Time) {
	e.drainEvents()
	e.handleSessionEdges(now)

	if e.connected && now.Sub(e.lastPacket) >= e.cfg.PacketInterval {
		e.lastPacket = now
		e.emitFrame(now)
	}

	if now.Sub(e.lastBattery) >= e.cfg.BatteryInterval {
		e.lastBattery = now
		e.drainBattery()
	}

	if e.ledOn && now.Sub(e.ledSince) > e.cfg.IndicatorPulse {
		e.setIndicator(false)
	}

	if e.input != nil && now.Sub(e.lastInput) >= e.cfg.InputInterval {
		e.lastInput = now
		e.pollInput(now)
	}

	if e.ectopic && now.Sub(e.ectopicSince) >= e.cfg.EctopicWindow {
		e.setEctopic(false, now)
		log.Printf("ecg: normal rhythm restored")
	}

	e.updateTracker()
}

// drainEvents moves queued transport events into the session flag. Events
// were produced on transport callbacks; this is the only place they touch
// engine state.
func (e *Engine) drainEvents() {
	for {
		select {
		case ev := <-e.sink.Events():
			e.connected = ev.Connected
		default:
			return
		}
	}
}

func (e *Engine) handleSessionEdges(now time.Time) {
	if e.connected && !e.prevConnected {
		// New session: counters back to zero, beat clock re-anchored.
		e.seq = 0
		e.gen.Reset()
		e.publish(transport.ChannelFirmware, []byte(e.cfg.FirmwareVersion))
		e.publish(transport.ChannelBattery, []byte{e.battery})
		log.Printf("ecg: collector connected, streaming started")
		e.prevConnected = true
	}
	if !e.connected && e.prevConnected {
		// Counters freeze; they resume only on the next connect.
		e.prevConnected = false
		log.Printf("ecg: collector disconnected, streaming stopped")
		// Re-announce availability from the loop, never from inside a
		// transport callback.
		e.Announce()
	}
}

// emitFrame generates one batch of samples, frames it, and publishes it.
func (e *Engine) emitFrame(now time.Time) {
	beats := e.gen.Advance(e.voltBuf)
	if beats > 0 {
		e.totalBeats += uint64(beats)
		e.setIndicator(true)
		e.ledSince = now
	}

	for i, mv := range e.voltBuf {
		e.rawBuf[i] = packet.FromMillivolts(mv, e.cfg.Calibration)
	}

	frame := packet.Encode(e.seq, e.rawBuf)
	e.publish(transport.ChannelECG, frame)
	if e.onFrame != nil {
		samples := make([]int16, len(e.rawBuf))
		copy(samples, e.rawBuf)
		e.onFrame(packet.Frame{Seq: e.seq, Samples: samples})
	}

	if e.seq%statusLogEvery == 0 {
		log.Printf("ecg: seq=%d rate=%.0f battery=%d%% ectopic=%v",
			e.seq, e.gen.Rate(), e.battery, e.ectopic)
	}

	e.seq++ // wraps at 65536 by uint16 arithmetic
	e.totalPackets++
}

func (e *Engine) drainBattery() {
	if e.battery > e.cfg.BatteryFloor {
		e.battery--
	}
	if e.connected {
		e.publish(transport.ChannelBattery, []byte{e.battery})
	}
	log.Printf("battery: %d%%", e.battery)
}

// pollInput samples the operator controls. The trigger button starts an
// ectopic window; the dial sets the heart rate through hysteresis (a
// floating input wiggles less than the threshold) and exponential smoothing.
func (e *Engine) pollInput(now time.Time) {
	s, err := e.input.Read()
	if err != nil {
		log.Printf("input read error: %v", err)
		return
	}

	if s.Trigger {
		if !e.ectopic {
			log.Printf("ecg: ectopic mode triggered by operator")
		}
		// Re-triggering while active restarts the window.
		e.setEctopic(true, now)
	}

	if !s.HasDial {
		return
	}

	if e.haveDial && abs(s.Dial-e.lastDial) < e.cfg.DialHysteresis {
		e.lastDial = s.Dial
		return
	}
	e.lastDial = s.Dial
	e.haveDial = true

	target := sim.MinRateBPM + s.Dial*(sim.MaxRateBPM-sim.MinRateBPM)
	e.setRate(e.gen.Rate()*0.9 + target*0.1)
}

// setRate is the single clamped rate setter shared by the dial path and the
// command path; the generator clamps to [40,180] BPM.
func (e *Engine) setRate(bpm float64) {
	e.gen.SetRate(bpm)
}

func (e *Engine) setEctopic(on bool, now time.Time) {
	e.ectopic = on
	e.ectopicSince = now
	e.gen.SetEctopic(on)
}

func (e *Engine) setIndicator(on bool) {
	e.ledOn = on
	if e.indicator == nil {
		return
	}
	if err := e.indicator.Set(on); err != nil {
		log.Printf("indicator error: %v", err)
	}
}

func (e *Engine) publish(ch transport.Channel, payload []byte) {
	if err := e.sink.Publish(ch, payload); err != nil {
		log.Printf("publish %s error: %v", ch, err)
	}
}

// announceRecord is the retained device-availability payload.
type announceRecord struct {
	Device       string   `json:"device"`
	Firmware     string   `json:"firmware"`
	SampleRateHz float64  `json:"sample_rate_hz"`
	Channels     []string `json:"channels"`
}

// Announce publishes the device record so a collector can discover the
// simulator. Called once at startup and again after every session ends.
func (e *Engine) Announce() {
	rec := announceRecord{
		Device:       e.cfg.DeviceName,
		Firmware:     e.cfg.FirmwareVersion,
		SampleRateHz: e.cfg.SampleRate,
		Channels: []string{
			string(transport.ChannelECG),
			string(transport.ChannelBattery),
			string(transport.ChannelFirmware),
		},
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		log.Printf("announce marshal error: %v", err)
		return
	}
	if err := e.sink.Announce(payload); err != nil {
		log.Printf("announce error: %v", err)
	}
}

func (e *Engine) updateTracker() {
	if e.tracker == nil {
		return
	}
	e.tracker.Update(e.connected, e.gen.Rate(), e.gen.RR(), e.battery,
		e.ectopic, e.totalPackets, e.totalBeats)
	e.tracker.SetLinkConnected(e.sink.IsConnected())
}

// Accessors used by tests and the command interpreter.

// Connected reports whether a collector session is active.
func (e *Engine) Connected() bool { return e.connected }

// Battery returns the current battery level percent.
func (e *Engine) Battery() uint8 { return e.battery }

// Rate returns the current heart rate in BPM.
func (e *Engine) Rate() float64 { return e.gen.Rate() }

// Ectopic reports whether the arrhythmic window is active.
func (e *Engine) Ectopic() bool { return e.ectopic }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
