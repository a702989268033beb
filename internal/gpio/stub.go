//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// NewRealInput returns an error on non-Linux platforms.
func NewRealInput(chipName string, triggerPin int, dialPath string, dialScale float64) (*RealInput, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (Sample, error) {
	return Sample{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealInput) Close() error { return nil }

// RealIndicator is not available on non-Linux platforms.
type RealIndicator struct{}

// NewRealIndicator returns an error on non-Linux platforms.
func NewRealIndicator(chipName string, ledPin int) (*RealIndicator, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (r *RealIndicator) Set(on bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealIndicator) Close() error { return nil }
