package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Session        string     `json:"session"`
	RateBPM        float64    `json:"rate_bpm"`
	RRSamples      float64    `json:"rr_samples"`
	BatteryPercent uint8      `json:"battery_percent"`
	Rhythm         string     `json:"rhythm"`
	PacketsSent    uint64     `json:"packets_sent"`
	Beats          uint64     `json:"beats"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	Link           LinkStatus `json:"link"`
	Config         ConfigJSON `json:"config"`
}

// LinkStatus reports broker link state.
type LinkStatus struct {
	Connected bool   `json:"connected"`
	Transport string `json:"transport"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceName       string  `json:"device_name"`
	FirmwareVersion  string  `json:"firmware_version"`
	SampleRateHz     float64 `json:"sample_rate_hz"`
	SamplesPerPacket int     `json:"samples_per_packet"`
	PacketIntervalMs int64   `json:"packet_interval_ms"`
	HTTPAddr         string  `json:"http_addr"`
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	session := "IDLE"
	if snap.SessionActive {
		session = "STREAMING"
	}
	rhythm := "SINUS"
	if snap.Ectopic {
		rhythm = "ECTOPIC"
	}

	inner := StatusInner{
		Session:        session,
		RateBPM:        snap.RateBPM,
		RRSamples:      snap.RRSamples,
		BatteryPercent: snap.BatteryPercent,
		Rhythm:         rhythm,
		PacketsSent:    snap.PacketsSent,
		Beats:          snap.Beats,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		Link: LinkStatus{
			Connected: snap.LinkConnected,
			Transport: snap.Config.Transport,
			Broker:    snap.Config.Broker,
		},
		Config: ConfigJSON{
			DeviceName:       snap.Config.DeviceName,
			FirmwareVersion:  snap.Config.FirmwareVersion,
			SampleRateHz:     snap.Config.SampleRateHz,
			SamplesPerPacket: snap.Config.SamplesPerPacket,
			PacketIntervalMs: snap.Config.PacketIntervalMs,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
