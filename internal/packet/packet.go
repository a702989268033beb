// Package packet implements the CardioGuard ECG notification frame.
// The layout is protocol-locked: a paired mobile parser reads it
// byte-for-byte, including the calibration arithmetic and its int16
// wraparound. No IO, no side effects.
//
//	offset 0..1  uint16 LE  sequence number
//	offset 2..3  uint16 LE  sample count
//	offset 4..   int16  LE  raw samples, 2 bytes each
package packet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed frame header length in bytes.
const HeaderSize = 4

// DefaultCalibration is the mV-per-LSB factor shared with the parser:
// raw * calibration = millivolts.
const DefaultCalibration = 0.00286

// Frame is one decoded wire packet.
type Frame struct {
	Seq     uint16
	Samples []int16
}

// FromMillivolts converts a voltage to the raw wire value. Overflow beyond
// the int16 range wraps; the parser reverses the same arithmetic, so the
// truncation is part of the contract, not an error.
func FromMillivolts(mv, calibration float64) int16 {
	return int16(int64(math.Round(mv / calibration)))
}

// ToMillivolts reverses FromMillivolts.
func ToMillivolts(raw int16, calibration float64) float64 {
	return float64(raw) * calibration
}

// Encode serializes a sequence number and sample batch into the wire layout.
func Encode(seq uint16, samples []int16) []byte {
	buf := make([]byte, HeaderSize+2*len(samples))
	binary.LittleEndian.PutUint16(buf[0:2], seq)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(samples)))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[HeaderSize+2*i:], uint16(s))
	}
	return buf
}

// Decode parses a wire frame. It fails only on structural problems (short
// buffer, count/length mismatch); sample values are taken as-is.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, fmt.Errorf("packet: %d bytes, need at least %d", len(buf), HeaderSize)
	}
	seq := binary.LittleEndian.Uint16(buf[0:2])
	count := int(binary.LittleEndian.Uint16(buf[2:4]))
	if want := HeaderSize + 2*count; len(buf) != want {
		return Frame{}, fmt.Errorf("packet: %d bytes for %d samples, want %d", len(buf), count, want)
	}

	samples := make([]int16, count)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[HeaderSize+2*i:]))
	}
	return Frame{Seq: seq, Samples: samples}, nil
}
