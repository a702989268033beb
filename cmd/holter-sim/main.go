// Command holter-sim streams a synthetic ECG to an MQTT or NATS broker,
// byte-compatible with the wearable it stands in for. A collector session
// (presence on the session topic) starts streaming; operator input comes
// from stdin keys and, when enabled, a hardware button and dial.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/firatmio/cardioguard-mg/internal/config"
	"github.com/firatmio/cardioguard-mg/internal/console"
	"github.com/firatmio/cardioguard-mg/internal/engine"
	"github.com/firatmio/cardioguard-mg/internal/gpio"
	"github.com/firatmio/cardioguard-mg/internal/sim"
	"github.com/firatmio/cardioguard-mg/internal/status"
	"github.com/firatmio/cardioguard-mg/internal/transport"
	"github.com/firatmio/cardioguard-mg/internal/web"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("holter-sim ")

	configPath := pflag.StringP("config", "c", "", "path to TOML config file")
	broker := pflag.String("broker", "", "broker URL (overrides config)")
	httpAddr := pflag.String("http", "", "HTTP status address (overrides config, empty keeps config value)")
	seed := pflag.Int64("seed", 0, "RNG seed (0 seeds from the clock)")
	tick := pflag.Duration("tick", 4*time.Millisecond, "scheduler tick interval")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: load config: %v", err)
		}
	}
	if *broker != "" {
		cfg.Transport.URL = *broker
	}
	if *httpAddr != "" {
		cfg.Web.Bind = *httpAddr
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *seed, *tick); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, seed int64, tick time.Duration) error {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sink, err := newSink(cfg.Transport)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Transport.Kind, err)
	}
	defer sink.Close()

	// Hardware is optional; a missing chip or ADC degrades to
	// console-only operation rather than refusing to start.
	var input gpio.Input
	var indicator gpio.Indicator
	if cfg.Input.Enabled {
		in, err := gpio.NewRealInput(cfg.Input.Chip, cfg.Input.TriggerPin, cfg.Input.DialPath, cfg.Input.DialScale)
		if err != nil {
			log.Printf("input disabled: %v", err)
		} else {
			input = in
			defer in.Close()
		}
		ind, err := gpio.NewRealIndicator(cfg.Input.Chip, cfg.Input.LEDPin)
		if err != nil {
			log.Printf("indicator disabled: %v", err)
		} else {
			indicator = ind
			defer ind.Close()
		}
	}

	engCfg := engine.DefaultConfig()
	engCfg.DeviceName = cfg.Device.Name
	engCfg.FirmwareVersion = cfg.Device.Firmware
	engCfg.SampleRate = cfg.Signal.SampleRateHz
	engCfg.SamplesPerPacket = cfg.Signal.SamplesPerPacket
	engCfg.PacketInterval = time.Duration(float64(cfg.Signal.SamplesPerPacket) / cfg.Signal.SampleRateHz * float64(time.Second))
	engCfg.BatteryInterval = time.Duration(cfg.Battery.IntervalSeconds) * time.Second
	engCfg.BatteryStart = uint8(cfg.Battery.StartPercent)
	engCfg.BatteryFloor = uint8(cfg.Battery.FloorPercent)
	if cfg.Input.DialScale > 0 {
		engCfg.DialHysteresis = 50.0 / cfg.Input.DialScale
	}

	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		DeviceName:       engCfg.DeviceName,
		FirmwareVersion:  engCfg.FirmwareVersion,
		SampleRateHz:     engCfg.SampleRate,
		SamplesPerPacket: engCfg.SamplesPerPacket,
		PacketIntervalMs: engCfg.PacketInterval.Milliseconds(),
		Transport:        cfg.Transport.Kind,
		Broker:           cfg.Transport.URL,
		HTTPAddr:         cfg.Web.Bind,
	})

	gen := sim.NewGenerator(engCfg.SampleRate, cfg.Signal.RateBPM, rng)
	eng := engine.New(engCfg, gen, sink, input, indicator, tracker, start)

	if cfg.Web.Bind != "" {
		hub := web.NewHub(engCfg.Calibration)
		hubCtx, hubCancel := context.WithCancel(context.Background())
		defer hubCancel()
		go hub.Run(hubCtx)
		eng.SetFrameCallback(hub.Feed)

		srv := web.New(cfg.Web.Bind, tracker, hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.Web.Bind)
	}

	// Retained so a collector that starts later still discovers us.
	eng.Announce()

	log.Printf("started: device=%s transport=%s url=%s rate=%.0f BPM seed=%d",
		cfg.Device.Name, cfg.Transport.Kind, cfg.Transport.URL, cfg.Signal.RateBPM, seed)
	eng.Apply(engine.CmdHelp, start)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cmds := console.Watch(os.Stdin)

	return runLoop(eng, cmds, time.Now, ticker.C, sigCh)
}

func newSink(tc config.TransportConfig) (transport.Sink, error) {
	switch tc.Kind {
	case "nats":
		return transport.NewNATSSink(tc.URL, tc.ClientID, tc.TopicPrefix)
	default:
		return transport.NewMQTTSink(tc.URL, tc.ClientID, tc.TopicPrefix)
	}
}

// runLoop is the single place engine state is touched. Ticks, operator
// commands, and signals are serialized through one select; transport
// callbacks never reach the engine directly.
func runLoop(eng *engine.Engine, cmds <-chan engine.Command, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return nil

		case cmd, ok := <-cmds:
			if !ok {
				// stdin closed; keep running on ticks alone.
				cmds = nil
				continue
			}
			eng.Apply(cmd, now())

		case <-tick:
			eng.Tick(now())
		}
	}
}
