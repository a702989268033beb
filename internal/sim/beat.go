package sim

const (
	// MinRateBPM and MaxRateBPM bound the heart rate everywhere; callers
	// mutate the rate only through Generator.SetRate, which clamps.
	MinRateBPM = 40.0
	MaxRateBPM = 180.0

	// hrvFraction is the beat-to-beat variability bound: each realized
	// R-R interval is the nominal interval perturbed by up to ±5%.
	hrvFraction = 0.05

	// ectopicHRVFraction is the extra, independent perturbation applied
	// while the ectopic mode is active (up to ±20% on top of the normal
	// draw, for a ±25% combined bound).
	ectopicHRVFraction = 0.20

	// minRRSamples floors the realized interval; a pathological draw can
	// never produce a non-positive R-R.
	minRRSamples = 1.0
)

// Generator owns the running sample clock and beat timing. It hands sample
// indices to the waveform model, decides each beat's realized R-R interval
// (nominal interval plus a bounded variability draw), and reports beat
// boundary crossings so the caller can drive the beat indicator.
//
// Not safe for concurrent use; the scheduler mutates it from one goroutine.
type Generator struct {
	sampleRate float64
	rng        Noise

	rateBPM float64
	nominal float64 // nominal R-R in samples, derived from rateBPM
	rr      float64 // realized R-R for the beat in progress
	ectopic bool

	idx      uint32
	nextBeat float64 // sample-index position of the next R peak
}

// NewGenerator creates a beat clock at the given sample rate and heart rate.
// rng feeds both the variability draws and the waveform noise.
func NewGenerator(sampleRate, rateBPM float64, rng Noise) *Generator {
	g := &Generator{sampleRate: sampleRate, rng: rng}
	g.SetRate(rateBPM)
	g.Reset()
	return g
}

// Advance fills buf with successive voltage samples and advances the sample
// clock. It returns the number of beat boundaries crossed within the batch.
func (g *Generator) Advance(buf []float64) int {
	beats := 0
	for i := range buf {
		buf[i] = Voltage(g.idx, g.nextBeat-g.rr, g.rr, g.sampleRate, g.ectopic, g.rng)
		g.idx++
		if float64(g.idx) >= g.nextBeat {
			g.scheduleNextBeat()
			beats++
		}
	}
	return beats
}

// scheduleNextBeat draws the next realized R-R interval and moves the beat
// boundary. Rate changes made since the last beat take effect here, via the
// nominal interval, never retroactively.
func (g *Generator) scheduleNextBeat() {
	v := (2*g.rng.Float64() - 1) * hrvFraction * g.nominal
	if g.ectopic {
		v += (2*g.rng.Float64() - 1) * ectopicHRVFraction * g.nominal
	}
	rr := g.nominal + v
	if rr < minRRSamples {
		rr = minRRSamples
	}
	g.rr = rr
	g.nextBeat = float64(g.idx) + rr
}

// Reset re-anchors the beat clock for a new session: sample index back to
// zero, first beat one nominal interval out.
func (g *Generator) Reset() {
	g.idx = 0
	g.rr = g.nominal
	g.nextBeat = g.nominal
}

// SetRate clamps bpm to [MinRateBPM, MaxRateBPM] and recomputes the nominal
// R-R interval. The beat already in progress keeps its realized interval.
func (g *Generator) SetRate(bpm float64) {
	if bpm < MinRateBPM {
		bpm = MinRateBPM
	}
	if bpm > MaxRateBPM {
		bpm = MaxRateBPM
	}
	g.rateBPM = bpm
	g.nominal = 60.0 / bpm * g.sampleRate
}

// SetEctopic switches between the normal and arrhythmic models. Timing and
// morphology change together; the window duration is the scheduler's concern.
func (g *Generator) SetEctopic(on bool) {
	g.ectopic = on
}

// Rate returns the current clamped heart rate in BPM.
func (g *Generator) Rate() float64 { return g.rateBPM }

// RR returns the realized R-R interval of the beat in progress, in samples.
func (g *Generator) RR() float64 { return g.rr }

// NominalRR returns the unperturbed R-R interval derived from the rate.
func (g *Generator) NominalRR() float64 { return g.nominal }

// SampleIndex returns the session-scoped sample counter.
func (g *Generator) SampleIndex() uint32 { return g.idx }

// Ectopic reports whether the arrhythmic model is active.
func (g *Generator) Ectopic() bool { return g.ectopic }
