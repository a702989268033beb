package main

// rPeakDetector finds R waves by rising threshold crossing with a
// refractory hold-off, clocked in sample counts so a slow consumer does
// not skew the rate estimate.
type rPeakDetector struct {
	sampleRate  float64
	thresholdMv float64
	refractory  uint32 // samples

	lastValue float64
	primed    bool

	lastPeak uint32
	havePeak bool
}

func newRPeakDetector(sampleRate float64) *rPeakDetector {
	return &rPeakDetector{
		sampleRate:  sampleRate,
		thresholdMv: 0.6,
		refractory:  uint32(0.2 * sampleRate), // 200 ms
	}
}

// Process consumes one sample at absolute index idx. It returns the
// instantaneous rate in BPM when a new beat completes an R-R interval.
func (d *rPeakDetector) Process(mv float64, idx uint32) (float64, bool) {
	if !d.primed {
		d.primed = true
		d.lastValue = mv
		return 0, false
	}

	rising := d.lastValue < d.thresholdMv && mv >= d.thresholdMv
	d.lastValue = mv
	if !rising {
		return 0, false
	}

	if d.havePeak && idx-d.lastPeak <= d.refractory {
		return 0, false
	}

	if !d.havePeak {
		d.havePeak = true
		d.lastPeak = idx
		return 0, false
	}

	rr := idx - d.lastPeak
	d.lastPeak = idx
	if rr == 0 {
		return 0, false
	}
	return 60.0 * d.sampleRate / float64(rr), true
}
