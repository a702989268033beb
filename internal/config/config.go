// Package config handles loading, defaulting, and validation of the
// holter-sim TOML configuration file. Every section maps to a typed struct
// so the rest of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Device    DeviceConfig    `toml:"device"    json:"device"`
	Signal    SignalConfig    `toml:"signal"    json:"signal"`
	Battery   BatteryConfig   `toml:"battery"   json:"battery"`
	Transport TransportConfig `toml:"transport" json:"transport"`
	Input     InputConfig     `toml:"input"     json:"input"`
	Web       WebConfig       `toml:"web"       json:"web"`
}

type DeviceConfig struct {
	Name     string `toml:"name"     json:"name"`
	Firmware string `toml:"firmware" json:"firmware"`
}

type SignalConfig struct {
	RateBPM          float64 `toml:"rate_bpm"           json:"rate_bpm"`
	SampleRateHz     float64 `toml:"sample_rate_hz"     json:"sample_rate_hz"`
	SamplesPerPacket int     `toml:"samples_per_packet" json:"samples_per_packet"`
}

type BatteryConfig struct {
	StartPercent    int `toml:"start_percent"    json:"start_percent"`
	FloorPercent    int `toml:"floor_percent"    json:"floor_percent"`
	IntervalSeconds int `toml:"interval_seconds" json:"interval_seconds"`
}

type TransportConfig struct {
	// Kind selects the broker protocol: "mqtt" or "nats".
	Kind        string `toml:"kind"         json:"kind"`
	URL         string `toml:"url"          json:"url"`
	ClientID    string `toml:"client_id"    json:"client_id"`
	TopicPrefix string `toml:"topic_prefix" json:"topic_prefix"`
}

type InputConfig struct {
	Enabled    bool    `toml:"enabled"     json:"enabled"`
	Chip       string  `toml:"chip"        json:"chip"`
	TriggerPin int     `toml:"trigger_pin" json:"trigger_pin"`
	LEDPin     int     `toml:"led_pin"     json:"led_pin"`
	DialPath   string  `toml:"dial_path"   json:"dial_path"`
	DialScale  float64 `toml:"dial_scale"  json:"dial_scale"`
}

type WebConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Name:     "CardioGuard-SIM",
			Firmware: "SIM-GO-1.0.0",
		},
		Signal: SignalConfig{
			RateBPM:          72,
			SampleRateHz:     250,
			SamplesPerPacket: 8,
		},
		Battery: BatteryConfig{
			StartPercent:    95,
			FloorPercent:    5,
			IntervalSeconds: 120,
		},
		Transport: TransportConfig{
			Kind:        "mqtt",
			URL:         "tcp://localhost:1883",
			ClientID:    "holter-sim",
			TopicPrefix: "cardioguard/sim",
		},
		Input: InputConfig{
			Enabled:    false,
			Chip:       "gpiochip0",
			TriggerPin: 17,
			LEDPin:     22,
			DialPath:   "",
			DialScale:  4095,
		},
		Web: WebConfig{
			Bind: "0.0.0.0:8080",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the cross-field constraints. Exposed so flag overrides
// applied after Load can be re-checked.
func Validate(cfg Config) error {
	if cfg.Device.Name == "" {
		return errors.New("device.name must not be empty")
	}
	if cfg.Signal.RateBPM < 40 || cfg.Signal.RateBPM > 180 {
		return errors.New("signal.rate_bpm must be between 40 and 180")
	}
	if cfg.Signal.SampleRateHz <= 0 {
		return errors.New("signal.sample_rate_hz must be > 0")
	}
	if cfg.Signal.SamplesPerPacket < 1 || cfg.Signal.SamplesPerPacket > 256 {
		return errors.New("signal.samples_per_packet must be between 1 and 256")
	}
	if cfg.Battery.StartPercent < 0 || cfg.Battery.StartPercent > 100 {
		return errors.New("battery.start_percent must be between 0 and 100")
	}
	if cfg.Battery.FloorPercent < 0 || cfg.Battery.FloorPercent > cfg.Battery.StartPercent {
		return errors.New("battery.floor_percent must be between 0 and battery.start_percent")
	}
	if cfg.Battery.IntervalSeconds < 1 {
		return errors.New("battery.interval_seconds must be >= 1")
	}
	switch cfg.Transport.Kind {
	case "mqtt", "nats":
	default:
		return fmt.Errorf("transport.kind must be mqtt or nats, got %q", cfg.Transport.Kind)
	}
	if cfg.Transport.URL == "" {
		return errors.New("transport.url must not be empty")
	}
	if cfg.Transport.TopicPrefix == "" {
		return errors.New("transport.topic_prefix must not be empty")
	}
	if cfg.Input.Enabled && cfg.Input.Chip == "" {
		return errors.New("input.chip must not be empty when input is enabled")
	}
	if cfg.Input.DialScale <= 0 {
		return errors.New("input.dial_scale must be > 0")
	}
	return nil
}
