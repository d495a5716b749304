package gpio

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pin is a single BCM line. ActiveLow inverts the logical value, so a
// sensor that pulls its line low when healthy is configured active_low.
type Pin struct {
	Number    int  `yaml:"pin"`
	ActiveLow bool `yaml:"active_low"`
}

// InputPins are the sensor and authorization lines.
type InputPins struct {
	Gas        Pin `yaml:"gas"`
	Temp       Pin `yaml:"temp"`
	Power      Pin `yaml:"power"`
	FanCurrent Pin `yaml:"fan_current"`
	VentFlow   Pin `yaml:"vent_flow"`
	Reset      Pin `yaml:"reset"`
}

// OutputPins are the actuator lines.
type OutputPins struct {
	Fan          Pin `yaml:"fan"`
	BackupPower  Pin `yaml:"backup_power"`
	ShutoffValve Pin `yaml:"shutoff_valve"`
	Alarm        Pin `yaml:"alarm"`
	Alert        Pin `yaml:"alert"`
	Visual       Pin `yaml:"visual"`
}

// PinMap assigns every interlock signal to a line.
type PinMap struct {
	Inputs  InputPins  `yaml:"inputs"`
	Outputs OutputPins `yaml:"outputs"`
}

// DefaultPinMap returns the wiring of the reference board.
func DefaultPinMap() PinMap {
	return PinMap{
		Inputs: InputPins{
			Gas:        Pin{Number: DefaultPinGas},
			Temp:       Pin{Number: DefaultPinTemp},
			Power:      Pin{Number: DefaultPinPower},
			FanCurrent: Pin{Number: DefaultPinFanCurrent},
			VentFlow:   Pin{Number: DefaultPinVentFlow},
			Reset:      Pin{Number: DefaultPinReset},
		},
		Outputs: OutputPins{
			Fan:          Pin{Number: DefaultPinFan},
			BackupPower:  Pin{Number: DefaultPinBackupPower},
			ShutoffValve: Pin{Number: DefaultPinShutoffValve},
			Alarm:        Pin{Number: DefaultPinAlarm},
			Alert:        Pin{Number: DefaultPinAlert},
			Visual:       Pin{Number: DefaultPinVisual},
		},
	}
}

// LoadPinMap reads a YAML pin map from path. Keys missing from the file
// keep their default assignment. An empty path returns the defaults.
func LoadPinMap(path string) (PinMap, error) {
	pins := DefaultPinMap()
	if path == "" {
		return pins, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PinMap{}, fmt.Errorf("read pin map: %w", err)
	}
	if err := yaml.Unmarshal(data, &pins); err != nil {
		return PinMap{}, fmt.Errorf("parse pin map %s: %w", path, err)
	}
	if err := pins.Validate(); err != nil {
		return PinMap{}, fmt.Errorf("pin map %s: %w", path, err)
	}
	return pins, nil
}

type namedPin struct {
	name string
	pin  Pin
}

func (p PinMap) inputs() []namedPin {
	return []namedPin{
		{"gas", p.Inputs.Gas},
		{"temp", p.Inputs.Temp},
		{"power", p.Inputs.Power},
		{"fan_current", p.Inputs.FanCurrent},
		{"vent_flow", p.Inputs.VentFlow},
		{"reset", p.Inputs.Reset},
	}
}

func (p PinMap) outputs() []namedPin {
	return []namedPin{
		{"fan", p.Outputs.Fan},
		{"backup_power", p.Outputs.BackupPower},
		{"shutoff_valve", p.Outputs.ShutoffValve},
		{"alarm", p.Outputs.Alarm},
		{"alert", p.Outputs.Alert},
		{"visual", p.Outputs.Visual},
	}
}

// Validate rejects negative pin numbers and lines assigned twice.
func (p PinMap) Validate() error {
	var errs []error
	used := make(map[int]string)
	for _, np := range append(p.inputs(), p.outputs()...) {
		if np.pin.Number < 0 {
			errs = append(errs, fmt.Errorf("%s: negative pin %d", np.name, np.pin.Number))
			continue
		}
		if other, ok := used[np.pin.Number]; ok {
			errs = append(errs, fmt.Errorf("%s: pin %d already used by %s", np.name, np.pin.Number, other))
			continue
		}
		used[np.pin.Number] = np.name
	}
	return errors.Join(errs...)
}
