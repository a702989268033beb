package main

import (
	"math"
	"testing"
)

// pulseTrain yields flat baseline with a single-sample spike every period
// samples, starting at the first period boundary.
func pulseTrain(n int, period int, amp float64) []float64 {
	out := make([]float64, n)
	for i := period; i < n; i += period {
		out[i] = amp
	}
	return out
}

func TestDetectorSteadyRate(t *testing.T) {
	d := newRPeakDetector(250)

	// Spikes every 250 samples at 250 Hz is 60 BPM.
	var rates []float64
	for i, mv := range pulseTrain(2000, 250, 1.2) {
		if bpm, ok := d.Process(mv, uint32(i)); ok {
			rates = append(rates, bpm)
		}
	}

	// First spike anchors, every later spike reports a rate.
	if len(rates) < 5 {
		t.Fatalf("expected at least 5 rate reports, got %d", len(rates))
	}
	for i, bpm := range rates {
		if math.Abs(bpm-60) > 0.5 {
			t.Errorf("report %d: %v BPM, want 60", i, bpm)
		}
	}
}

func TestDetectorRefractorySuppressesDoubleCount(t *testing.T) {
	d := newRPeakDetector(250)

	// Two crossings 10 samples apart, well inside the 50-sample refractory.
	samples := make([]float64, 600)
	samples[100] = 1.2
	samples[110] = 1.2
	samples[400] = 1.2

	var rates []float64
	for i, mv := range samples {
		if bpm, ok := d.Process(mv, uint32(i)); ok {
			rates = append(rates, bpm)
		}
	}

	if len(rates) != 1 {
		t.Fatalf("expected 1 rate report, got %d: %v", len(rates), rates)
	}
	// 300 samples between counted peaks at 250 Hz is 50 BPM.
	if math.Abs(rates[0]-50) > 0.5 {
		t.Errorf("rate = %v BPM, want 50", rates[0])
	}
}

func TestDetectorIgnoresSubThreshold(t *testing.T) {
	d := newRPeakDetector(250)

	for i, mv := range pulseTrain(1000, 250, 0.4) {
		if _, ok := d.Process(mv, uint32(i)); ok {
			t.Fatal("sub-threshold signal should never report a beat")
		}
	}
}

func TestDetectorTWaveBelowThresholdNotCounted(t *testing.T) {
	d := newRPeakDetector(250)

	// R spike followed by a smaller T-like bump outside the refractory.
	samples := make([]float64, 1000)
	samples[100] = 1.2
	samples[200] = 0.35 // T amplitude, under the 0.6 mV threshold
	samples[350] = 1.2
	samples[450] = 0.35
	samples[600] = 1.2

	var count int
	for i, mv := range samples {
		if _, ok := d.Process(mv, uint32(i)); ok {
			count++
		}
	}
	// Three R spikes, first anchors, two reports.
	if count != 2 {
		t.Errorf("expected 2 reports, got %d", count)
	}
}
