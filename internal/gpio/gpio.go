// Package gpio provides operator input and the beat indicator LED with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device for the digital lines and a Linux IIO sysfs attribute
// for the analog rate dial. The fakes allow testing without hardware.
package gpio

// Sample is a single reading of the operator controls.
type Sample struct {
	// Dial is the normalized rate dial position in [0, 1]. Only valid
	// when HasDial is true (no ADC configured means no dial).
	Dial    float64
	HasDial bool

	// Trigger is true while the arrhythmia trigger button is held.
	Trigger bool
}

// Input reads the operator controls. Polled, never interrupt-driven.
type Input interface {
	Read() (Sample, error)
	Close() error
}

// Indicator drives the beat indicator LED.
type Indicator interface {
	Set(on bool) error
	Close() error
}

// Pin defaults (BCM numbering).
const (
	DefaultPinTrigger = 17 // arrhythmia trigger button, pull-up, active low
	DefaultPinLED     = 22 // beat indicator LED
)

// DefaultDialScale is the full-scale raw value of a 12-bit ADC channel.
const DefaultDialScale = 4095
