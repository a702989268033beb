//go:build linux

package gpio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// RealInput reads the trigger button from the GPIO character device and the
// rate dial from a Linux IIO raw-voltage attribute.
type RealInput struct {
	chip      *gpiocdev.Chip
	trigger   *gpiocdev.Line
	dialPath  string
	dialScale float64
}

// NewRealInput requests the trigger line as input with pull-up (the button
// shorts to ground). dialPath may be empty when no ADC is wired; readings
// then report HasDial=false and the engine keeps its current rate.
func NewRealInput(chipName string, triggerPin int, dialPath string, dialScale float64) (*RealInput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(triggerPin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", triggerPin, err)
	}

	return &RealInput{
		chip:      chip,
		trigger:   line,
		dialPath:  dialPath,
		dialScale: dialScale,
	}, nil
}

// Read samples the button and, when configured, the dial.
// The button is active low: raw 0 = pressed.
func (r *RealInput) Read() (Sample, error) {
	raw, err := r.trigger.Value()
	if err != nil {
		return Sample{}, fmt.Errorf("read trigger pin: %w", err)
	}

	s := Sample{Trigger: raw == 0}

	if r.dialPath != "" {
		b, err := os.ReadFile(r.dialPath)
		if err != nil {
			return Sample{}, fmt.Errorf("read dial: %w", err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("parse dial value: %w", err)
		}
		s.Dial = v / r.dialScale
		if s.Dial < 0 {
			s.Dial = 0
		}
		if s.Dial > 1 {
			s.Dial = 1
		}
		s.HasDial = true
	}

	return s, nil
}

// Close releases the GPIO resources.
func (r *RealInput) Close() error {
	var errs []error
	if r.trigger != nil {
		if err := r.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealIndicator drives the LED through a GPIO output line.
type RealIndicator struct {
	chip *gpiocdev.Chip
	led  *gpiocdev.Line
}

// NewRealIndicator requests the LED line as output, initially off.
func NewRealIndicator(chipName string, ledPin int) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(ledPin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", ledPin, err)
	}

	return &RealIndicator{chip: chip, led: line}, nil
}

// Set switches the LED.
func (r *RealIndicator) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.led.SetValue(v); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// Close turns the LED off and releases the line.
func (r *RealIndicator) Close() error {
	var errs []error
	if r.led != nil {
		if err := r.led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led: %w", err))
		}
		if err := r.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
