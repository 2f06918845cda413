package gpio

import "errors"

// FakeIO is a test double for both sides of the hardware: it returns
// scripted input samples and records every output write.
type FakeIO struct {
	// Samples contains scripted inputs. Each call to Read() consumes the
	// next sample; when exhausted, the last sample repeats.
	Samples []Sample

	// index tracks current position in Samples.
	index int

	// Relay and LED hold the current output levels.
	Relay bool
	LED   bool

	// RelayWrites and LEDWrites record every write, in order.
	RelayWrites []bool
	LEDWrites   []bool

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error

	// WriteError, if set, will be returned by SetRelay and SetLED.
	WriteError error
}

// NewFakeIO creates a FakeIO with the given input script.
func NewFakeIO(samples []Sample) *FakeIO {
	return &FakeIO{Samples: samples}
}

// Read returns the next scripted sample. If samples are exhausted, the
// last sample is returned repeatedly.
func (f *FakeIO) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// SetRelay records the relay write.
func (f *FakeIO) SetRelay(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Relay = on
	f.RelayWrites = append(f.RelayWrites, on)
	return nil
}

// SetLED records the LED write.
func (f *FakeIO) SetLED(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LED = on
	f.LEDWrites = append(f.LEDWrites, on)
	return nil
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the input script and clears recorded writes.
func (f *FakeIO) Reset() {
	f.index = 0
	f.Relay = false
	f.LED = false
	f.RelayWrites = nil
	f.LEDWrites = nil
	f.Closed = false
}
