package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/firatmio/cardioguard-mg/internal/packet"
)

// frameMsg is the JSON shape pushed to browsers for each emitted frame.
// Samples are converted back to millivolts so the page does not need to
// know the calibration constant.
type frameMsg struct {
	Seq uint16    `json:"seq"`
	MV  []float64 `json:"mv"`
}

// Hub fans emitted ECG frames out to WebSocket clients. Register,
// unregister, and broadcast all go through channels; Run owns the client
// map, so the hub is safe for concurrent use.
type Hub struct {
	calibration float64

	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	upgrader   websocket.Upgrader
}

// NewHub allocates a hub. Call Run in a goroutine to start the event loop.
func NewHub(calibration float64) *Hub {
	return &Hub{
		calibration: calibration,
		clients:     make(map[*websocket.Conn]struct{}),
		register:    make(chan *websocket.Conn, 16),
		unregister:  make(chan *websocket.Conn, 16),
		broadcast:   make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run processes registrations, unregistrations, broadcasts, and keepalive
// pings in a single select loop. It closes all clients when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			delete(h.clients, c)
			_ = c.Close()

		case msg := <-h.broadcast:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					delete(h.clients, c)
					_ = c.Close()
				}
			}

		case <-ping.C:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					delete(h.clients, c)
					_ = c.Close()
				}
			}
		}
	}
}

// Handler upgrades incoming requests to WebSocket connections and registers
// them with the hub. Clients only receive; inbound frames are drained to
// service pongs.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})

			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Feed queues one emitted frame for delivery to all connected clients.
// If the broadcast channel is full the frame is dropped rather than
// stalling the emitter.
func (h *Hub) Feed(f packet.Frame) {
	mv := make([]float64, len(f.Samples))
	for i, raw := range f.Samples {
		mv[i] = packet.ToMillivolts(raw, h.calibration)
	}
	b, err := json.Marshal(frameMsg{Seq: f.Seq, MV: mv})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}
