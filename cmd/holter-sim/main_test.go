package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/firatmio/cardioguard-mg/internal/engine"
	"github.com/firatmio/cardioguard-mg/internal/sim"
	"github.com/firatmio/cardioguard-mg/internal/status"
	"github.com/firatmio/cardioguard-mg/internal/transport"
)

// centeredNoise returns the midpoint draw, so every symmetric random
// perturbation cancels and the loop is fully deterministic.
type centeredNoise struct{}

func (centeredNoise) Float64() float64 { return 0.5 }

// fakeClock returns a function that yields start+step, start+2*step, ...
// on successive calls. Only called from runLoop's goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * step)
	}
}

func newLoopEngine(t *testing.T, start time.Time) (*engine.Engine, *transport.FakeSink) {
	t.Helper()
	cfg := engine.DefaultConfig()
	gen := sim.NewGenerator(cfg.SampleRate, 72, centeredNoise{})
	sink := transport.NewFakeSink()
	tracker := status.NewTracker(start, status.Config{DeviceName: cfg.DeviceName})
	eng := engine.New(cfg, gen, sink, nil, nil, tracker, start)
	return eng, sink
}

// driveLoop runs runLoop in a goroutine, feeds it nTicks ticks and any
// commands, then delivers a signal and waits for it to return.
func driveLoop(t *testing.T, eng *engine.Engine, clock func() time.Time, nTicks int, cmds chan engine.Command, sendCmds []engine.Command) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	var cmdCh <-chan engine.Command
	if cmds != nil {
		cmdCh = cmds
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(eng, cmdCh, clock, tick, sig)
	}()

	for _, cmd := range sendCmds {
		cmds <- cmd
	}
	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM

	return <-errCh
}

func TestRunLoopEmitsFramesWhileConnected(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng, sink := newLoopEngine(t, start)
	sink.PushEvent(true)

	clock := fakeClock(start, 32*time.Millisecond)
	if err := driveLoop(t, eng, clock, 5, nil, nil); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	frames := sink.OnChannel(transport.ChannelECG)
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	if !eng.Connected() {
		t.Error("expected session to be active")
	}
}

func TestRunLoopIdleWithoutSession(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng, sink := newLoopEngine(t, start)

	clock := fakeClock(start, 32*time.Millisecond)
	if err := driveLoop(t, eng, clock, 10, nil, nil); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if n := len(sink.OnChannel(transport.ChannelECG)); n != 0 {
		t.Errorf("expected no frames while disconnected, got %d", n)
	}
}

func TestRunLoopAppliesCommands(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng, _ := newLoopEngine(t, start)

	cmds := make(chan engine.Command)
	clock := fakeClock(start, time.Millisecond)
	send := []engine.Command{engine.CmdRateUp, engine.CmdRateUp, engine.CmdToggleEctopic}
	if err := driveLoop(t, eng, clock, 0, cmds, send); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := eng.Rate(); got != 92 {
		t.Errorf("rate after two increments = %v, want 92", got)
	}
	if !eng.Ectopic() {
		t.Error("expected ectopic mode on")
	}
}

func TestRunLoopSurvivesClosedCommandChannel(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng, sink := newLoopEngine(t, start)
	sink.PushEvent(true)

	cmds := make(chan engine.Command)
	close(cmds)

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	clock := fakeClock(start, 32*time.Millisecond)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(eng, cmds, clock, tick, sig)
	}()

	// Ticks must still be serviced after stdin goes away.
	for i := 0; i < 3; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if n := len(sink.OnChannel(transport.ChannelECG)); n != 3 {
		t.Errorf("expected 3 frames, got %d", n)
	}
}

func TestRunLoopReturnsOnSignal(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng, _ := newLoopEngine(t, start)

	clock := fakeClock(start, time.Millisecond)
	if err := driveLoop(t, eng, clock, 0, nil, nil); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}
