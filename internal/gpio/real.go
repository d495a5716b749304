//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/sweeney/gas-interlock/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

const chipName = "gpiochip0"

// RealReader reads the interlock inputs from Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line // gas, temp, power, fan current, vent flow, reset
}

// RealWriter drives the actuator outputs through Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line // fan, backup power, valve, alarm, alert, visual
	last  logic.Outputs    // most recently commanded pattern
}

// NewRealReader requests the six input lines described by pins.
// Inputs use pull-down so a disconnected active-high sensor reads as a fault.
func NewRealReader(pins PinMap) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	for _, np := range pins.inputs() {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
		if np.pin.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(np.pin.Number, opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", np.name, np.pin.Number, err)
		}
		r.lines = append(r.lines, line)
	}

	return r, nil
}

// Read returns the logical input states. Active-low lines are already
// inverted by the kernel.
func (r *RealReader) Read() (logic.Inputs, error) {
	var v [6]bool
	for i, line := range r.lines {
		raw, err := line.Value()
		if err != nil {
			return logic.Inputs{}, fmt.Errorf("read input %d: %w", i, err)
		}
		v[i] = raw == 1
	}

	return logic.Inputs{
		GasOK:           v[0],
		TempOK:          v[1],
		PowerOK:         v[2],
		FanCurrentOK:    v[3],
		VentFlowOK:      v[4],
		ResetAuthorized: v[5],
	}, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	return closeLines(r.chip, r.lines, true)
}

// NewRealWriter requests the six output lines described by pins.
// Every line starts de-energised, matching the standby pattern.
func NewRealWriter(pins PinMap) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: chip}
	for _, np := range pins.outputs() {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
		if np.pin.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(np.pin.Number, opts...)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", np.name, np.pin.Number, err)
		}
		w.lines = append(w.lines, line)
	}

	return w, nil
}

// Write sets every output line. All six lines are attempted even if one fails.
func (w *RealWriter) Write(out logic.Outputs) error {
	w.last = out
	values := []bool{out.Fan, out.BackupPower, out.ShutoffValve, out.Alarm, out.Alert, out.VisualIndicator}

	var errs []error
	for i, line := range w.lines {
		v := 0
		if values[i] {
			v = 1
		}
		if err := line.SetValue(v); err != nil {
			errs = append(errs, fmt.Errorf("set output %d: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("write errors: %v", errs)
	}
	return nil
}

// Close releases GPIO resources. Outside standby the output lines are
// closed still driven, so the last pattern stays on the pins; in standby
// they return to pull-down inputs.
func (w *RealWriter) Close() error {
	if HoldOnRelease(w.last) {
		log.Printf("gpio: closing with outputs held at %+v", w.last)
		return closeLines(w.chip, w.lines, false)
	}
	return closeLines(w.chip, w.lines, true)
}

// closeLines closes lines and the chip. With reset set, each line is first
// reconfigured to the Raspberry Pi boot default (input with pull-down).
func closeLines(chip *gpiocdev.Chip, lines []*gpiocdev.Line, reset bool) error {
	var errs []error

	for i, line := range lines {
		if line == nil {
			continue
		}
		if reset {
			if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure line %d: %w", i, err))
			}
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", i, err))
		}
	}
	if chip != nil {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
