package sim

import (
	"math"
	"math/rand"
	"testing"
)

func TestNominalRRAt72BPM(t *testing.T) {
	g := NewGenerator(250, 72, centeredNoise{})
	want := 250.0 * 60.0 / 72.0 // 208.33...
	if math.Abs(g.NominalRR()-want) > 1e-9 {
		t.Errorf("nominal R-R = %v samples, want %v", g.NominalRR(), want)
	}
}

func TestSetRateClamps(t *testing.T) {
	g := NewGenerator(250, 72, centeredNoise{})

	g.SetRate(10)
	if g.Rate() != MinRateBPM {
		t.Errorf("rate after SetRate(10) = %v, want %v", g.Rate(), MinRateBPM)
	}
	g.SetRate(500)
	if g.Rate() != MaxRateBPM {
		t.Errorf("rate after SetRate(500) = %v, want %v", g.Rate(), MaxRateBPM)
	}
}

// realizedIntervals advances one sample at a time and records the gap
// between successive beat boundaries.
func realizedIntervals(g *Generator, nSamples int) []float64 {
	var intervals []float64
	buf := make([]float64, 1)
	last := -1
	for i := 0; i < nSamples; i++ {
		if g.Advance(buf) > 0 {
			if last >= 0 {
				intervals = append(intervals, float64(i-last))
			}
			last = i
		}
	}
	return intervals
}

func TestVariabilityBoundsNormal(t *testing.T) {
	g := NewGenerator(250, 72, rand.New(rand.NewSource(1)))
	nominal := g.NominalRR()

	intervals := realizedIntervals(g, 10000)
	if len(intervals) < 40 {
		t.Fatalf("only %d intervals observed over 10000 samples", len(intervals))
	}

	var sum float64
	for _, rr := range intervals {
		sum += rr
		// Boundary detection quantizes to whole samples, so allow one
		// sample of slack on the ±5% bound.
		if dev := math.Abs(rr - nominal); dev > hrvFraction*nominal+1 {
			t.Errorf("interval %v deviates %v from nominal %v, bound %v",
				rr, dev, nominal, hrvFraction*nominal)
		}
	}

	mean := sum / float64(len(intervals))
	if math.Abs(mean-nominal) > 0.05*nominal {
		t.Errorf("mean realized R-R %v outside ±5%% of nominal %v", mean, nominal)
	}
}

func TestVariabilityBoundsEctopic(t *testing.T) {
	g := NewGenerator(250, 72, rand.New(rand.NewSource(2)))
	g.SetEctopic(true)
	nominal := g.NominalRR()

	intervals := realizedIntervals(g, 20000)
	if len(intervals) == 0 {
		t.Fatal("no intervals observed")
	}
	for _, rr := range intervals {
		if rr <= 0 {
			t.Fatalf("non-positive realized interval %v", rr)
		}
		bound := (hrvFraction + ectopicHRVFraction) * nominal
		if dev := math.Abs(rr - nominal); dev > bound+1 {
			t.Errorf("ectopic interval %v deviates %v, bound %v", rr, dev, bound)
		}
	}
}

func TestRateChangeAppliesAtNextBeat(t *testing.T) {
	g := NewGenerator(250, 60, centeredNoise{}) // nominal 250 samples
	buf := make([]float64, 1)

	// Mid-beat rate change must not move the already scheduled boundary.
	for i := 0; i < 100; i++ {
		g.Advance(buf)
	}
	g.SetRate(120)
	if g.RR() != 250 {
		t.Errorf("in-progress R-R changed to %v on SetRate", g.RR())
	}

	// Cross the first boundary; the new nominal (125 samples) takes over.
	for i := 100; i < 250; i++ {
		g.Advance(buf)
	}
	if g.RR() != 125 {
		t.Errorf("R-R after boundary = %v, want 125", g.RR())
	}
}

func TestResetReanchorsClock(t *testing.T) {
	g := NewGenerator(250, 72, rand.New(rand.NewSource(3)))
	buf := make([]float64, 512)
	g.Advance(buf)

	g.Reset()
	if g.SampleIndex() != 0 {
		t.Errorf("sample index after Reset = %d, want 0", g.SampleIndex())
	}
	if g.RR() != g.NominalRR() {
		t.Errorf("R-R after Reset = %v, want nominal %v", g.RR(), g.NominalRR())
	}
}

func TestAdvanceCountsBeats(t *testing.T) {
	g := NewGenerator(250, 60, centeredNoise{}) // one beat per 250 samples
	buf := make([]float64, 1000)
	if beats := g.Advance(buf); beats != 4 {
		t.Errorf("beats over 1000 samples at 60 BPM = %d, want 4", beats)
	}
}
