// Command holter-monitor is a minimal collector for the holter simulator.
// It announces its presence on the session topic, which starts the stream,
// then decodes ECG frames and reports the detected heart rate alongside
// battery and firmware updates.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/pflag"

	"github.com/firatmio/cardioguard-mg/internal/packet"
	"github.com/firatmio/cardioguard-mg/internal/transport"
)

const sessionOffline = "offline"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("holter-monitor ")

	broker := pflag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	prefix := pflag.String("prefix", "cardioguard/sim", "device topic prefix")
	clientID := pflag.String("client-id", "holter-monitor", "MQTT client ID")
	sampleRate := pflag.Float64("sample-rate", 250, "device sample rate in Hz")
	calibration := pflag.Float64("calibration", packet.DefaultCalibration, "mV per LSB")
	pflag.Parse()

	if err := run(*broker, *prefix, *clientID, *sampleRate, *calibration); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// stream accumulates per-session decode state. Paho delivers messages in
// order on one router goroutine, so no locking is needed.
type stream struct {
	calibration float64

	detector  *rPeakDetector
	sampleIdx uint32

	lastSeq uint16
	haveSeq bool
}

func (s *stream) handleFrame(data []byte) {
	frame, err := packet.Decode(data)
	if err != nil {
		log.Printf("bad frame: %v", err)
		return
	}

	if s.haveSeq && frame.Seq != s.lastSeq+1 {
		// uint16 arithmetic makes the wrap at 65535 come out as +1.
		log.Printf("seq gap: got %d after %d", frame.Seq, s.lastSeq)
	}
	s.lastSeq = frame.Seq
	s.haveSeq = true

	for _, raw := range frame.Samples {
		mv := packet.ToMillivolts(raw, s.calibration)
		if bpm, ok := s.detector.Process(mv, s.sampleIdx); ok {
			log.Printf("heart rate: %.0f BPM", bpm)
		}
		s.sampleIdx++
	}
}

func run(broker, prefix, clientID string, sampleRate, calibration float64) error {
	topics := transport.TopicsFor(prefix)
	st := &stream{
		calibration: calibration,
		detector:    newRPeakDetector(sampleRate),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		// If we die uncleanly the device must still see the session end.
		SetWill(topics.Session, sessionOffline, 1, true).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Printf("connected to %s", broker)
			c.Subscribe(topics.ECG, 0, func(_ mqtt.Client, m mqtt.Message) {
				st.handleFrame(m.Payload())
			})
			c.Subscribe(topics.Battery, 0, func(_ mqtt.Client, m mqtt.Message) {
				if p := m.Payload(); len(p) == 1 {
					log.Printf("battery: %d%%", p[0])
				}
			})
			c.Subscribe(topics.Firmware, 0, func(_ mqtt.Client, m mqtt.Message) {
				log.Printf("firmware: %s", m.Payload())
			})
			c.Subscribe(topics.Advertise, 1, func(_ mqtt.Client, m mqtt.Message) {
				log.Printf("device: %s", m.Payload())
			})
			// Presence starts the stream.
			c.Publish(topics.Session, 1, true, transport.SessionOnline)
		})

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("connect %s: %w", broker, tok.Error())
	}
	defer client.Disconnect(1000)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received %v, ending session", s)

	// Clean goodbye so the device stops streaming immediately.
	tok := client.Publish(topics.Session, 1, true, sessionOffline)
	tok.WaitTimeout(2 * time.Second)
	return nil
}
