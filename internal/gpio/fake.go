package gpio

import (
	"errors"

	"github.com/sweeney/gas-interlock/internal/logic"
)

// FakeReader is a test double that returns scripted input values.
type FakeReader struct {
	// Samples contains scripted inputs to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.Inputs

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.Inputs) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (logic.Inputs, error) {
	if f.ReadError != nil {
		return logic.Inputs{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.Inputs{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records every pattern written to it.
type FakeWriter struct {
	// Writes contains every successfully written pattern, in order.
	Writes []logic.Outputs

	// WriteError, if set, will be returned by Write()
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the pattern.
func (f *FakeWriter) Write(out logic.Outputs) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, out)
	return nil
}

// Last returns the most recent pattern, or false if nothing was written.
func (f *FakeWriter) Last() (logic.Outputs, bool) {
	if len(f.Writes) == 0 {
		return logic.Outputs{}, false
	}
	return f.Writes[len(f.Writes)-1], true
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Closed = true
	return nil
}
