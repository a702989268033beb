// Package sim generates a synthetic single-lead ECG waveform.
// The model is a sum of Gaussian deflections (P, Q, R, S, T, U) over the
// fractional position within the current beat, plus slow baseline wander and
// a small amount of uniform noise. It is deliberately non-clinical: the goal
// is a stream that looks right on a monitor and exercises a downstream
// parser, not electrophysiological fidelity.
package sim

import "math"

// Noise supplies uniform pseudorandom values in [0, 1). *math/rand.Rand
// satisfies it; tests inject a fixed source for determinism.
type Noise interface {
	Float64() float64
}

const (
	// noiseAmpMv is the peak amplitude of the additive uniform noise.
	noiseAmpMv = 0.015

	// Baseline wander: a very slow sinusoid, period on the order of
	// tens of seconds at 250 Hz.
	wanderRate  = 0.3
	wanderAmpMv = 0.02
)

// deflection is one Gaussian component of the beat morphology.
// center and width are fractions of the beat cycle; amp is in millivolts
// (negative for downward deflections).
type deflection struct {
	center float64
	width  float64
	amp    float64
}

// Normal sinus rhythm: P, Q, R, S, T and a tiny U wave.
var normalShape = []deflection{
	{0.12, 0.025, 0.15},  // P
	{0.20, 0.008, -0.10}, // Q
	{0.22, 0.010, 1.20},  // R
	{0.24, 0.008, -0.25}, // S
	{0.38, 0.040, 0.30},  // T
	{0.50, 0.025, 0.03},  // U
}

// Ectopic (PVC-like) beat: widened QRS, deep S, inverted T.
var ectopicShape = []deflection{
	{0.20, 0.018, 0.08},  // small P
	{0.22, 0.015, -0.20}, // deep Q
	{0.25, 0.020, 1.80},  // tall wide R
	{0.30, 0.018, -0.50}, // deep S
	{0.45, 0.060, -0.25}, // inverted T
}

// Ectopic beats additionally carry low-frequency jitter gated by a bump
// late in the cycle.
const (
	ectopicJitterRate  = 0.1
	ectopicJitterAmp   = 0.15
	ectopicJitterGate  = 0.60
	ectopicJitterWidth = 0.05
)

// gaussianBump is the unit Gaussian used for every deflection: maximal at
// center, strictly decreasing with distance from it.
func gaussianBump(x, center, width float64) float64 {
	d := x - center
	return math.Exp(-(d * d) / (2 * width * width))
}

// beatPosition maps an absolute sample index to the fractional position
// [0, 1) within the beat that started at beatOrigin. Negative results
// (index before the origin) wrap back into range.
func beatPosition(idx, beatOrigin, rrInterval float64) float64 {
	p := math.Mod((idx-beatOrigin)/rrInterval, 1)
	if p < 0 {
		p++
	}
	return p
}

// Voltage returns the model voltage in millivolts at sample index idx.
// beatOrigin and rrInterval are in sample units; ectopic selects the
// arrhythmic morphology. rng feeds only the additive noise term, so the
// function is pure with respect to idx when rng is fixed.
func Voltage(idx uint32, beatOrigin, rrInterval, sampleRate float64, ectopic bool, rng Noise) float64 {
	p := beatPosition(float64(idx), beatOrigin, rrInterval)

	var mv float64
	if ectopic {
		for _, d := range ectopicShape {
			mv += d.amp * gaussianBump(p, d.center, d.width)
		}
		jitter := math.Sin(float64(idx)*ectopicJitterRate) * ectopicJitterAmp
		mv += jitter * gaussianBump(p, ectopicJitterGate, ectopicJitterWidth)
	} else {
		for _, d := range normalShape {
			mv += d.amp * gaussianBump(p, d.center, d.width)
		}
	}

	mv += math.Sin(float64(idx)/sampleRate*wanderRate) * wanderAmpMv
	mv += (2*rng.Float64() - 1) * noiseAmpMv

	return mv
}
