package gpio

import "errors"

// FakeInput is a test double that returns scripted control readings.
type FakeInput struct {
	// Samples contains scripted readings. Each call to Read() consumes
	// the next sample; when exhausted, the last sample repeats.
	Samples []Sample

	// ReadError, if set, is returned by Read().
	ReadError error

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples []Sample) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeInput) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeIndicator records every LED state change.
type FakeIndicator struct {
	// States contains each value passed to Set, in order.
	States []bool

	// SetError, if set, is returned by Set().
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIndicator creates an empty FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records the state.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// On reports the most recently set state (false if never set).
func (f *FakeIndicator) On() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}
