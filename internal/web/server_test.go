package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/firatmio/cardioguard-mg/internal/packet"
	"github.com/firatmio/cardioguard-mg/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *Hub) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		DeviceName:       "CardioGuard-SIM",
		FirmwareVersion:  "SIM-GO-1.0.0",
		SampleRateHz:     250,
		SamplesPerPacket: 8,
		PacketIntervalMs: 32,
		Transport:        "mqtt",
		Broker:           "tcp://localhost:1883",
		HTTPAddr:         ":8080",
	}
	tr := status.NewTracker(start, cfg)
	hub := NewHub(packet.DefaultCalibration)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := New(":0", tr, hub)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr, hub
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(true, 72, 208.33, 93, false, 120, 14)
	tr.SetLinkConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Session != "STREAMING" {
		t.Errorf("session: got %q, want STREAMING", sj.Status.Session)
	}
	if sj.Status.RateBPM != 72 {
		t.Errorf("rate: got %v, want 72", sj.Status.RateBPM)
	}
	if !sj.Status.Link.Connected {
		t.Error("expected link connected")
	}
	if sj.Status.Link.Broker != "tcp://localhost:1883" {
		t.Errorf("broker: got %q", sj.Status.Link.Broker)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(true, 72, 208.33, 93, false, 0, 0)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketReceivesFrames(t *testing.T) {
	ts, _, hub := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()

	// Registration races with the first broadcast, so feed repeatedly
	// until the client sees a frame.
	done := make(chan struct{})
	defer close(done)
	go func() {
		frame := packet.Frame{Seq: 7, Samples: []int16{100, -200, 350, 0, 0, 0, 0, 0}}
		for {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
				hub.Feed(frame)
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var msg struct {
		Seq uint16    `json:"seq"`
		MV  []float64 `json:"mv"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if msg.Seq != 7 {
		t.Errorf("seq: got %d, want 7", msg.Seq)
	}
	if len(msg.MV) != 8 {
		t.Errorf("sample count: got %d, want 8", len(msg.MV))
	}
	if got, want := msg.MV[2], packet.ToMillivolts(350, packet.DefaultCalibration); got != want {
		t.Errorf("mv[2]: got %v, want %v", got, want)
	}
}
