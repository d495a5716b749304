// Package logic contains the pure safety logic for the gas mitigation interlock.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Mode is the operating mode of the interlock. The zero value is ModeStandby.
type Mode int

const (
	ModeStandby Mode = iota
	ModeHazardMitigation
	ModeFaultMitigation
	ModeWaitingForReset
	ModeFailsafePowerFail
	ModeHazardPowerFail

	numModes = iota
)

var modeNames = [numModes]string{
	ModeStandby:           "STANDBY",
	ModeHazardMitigation:  "HAZARD_MITIGATION",
	ModeFaultMitigation:   "FAULT_MITIGATION",
	ModeWaitingForReset:   "WAITING_FOR_RESET",
	ModeFailsafePowerFail: "FAILSAFE_POWER_FAIL",
	ModeHazardPowerFail:   "HAZARD_POWER_FAIL",
}

// Modes returns every mode in declaration order.
func Modes() []Mode {
	return []Mode{
		ModeStandby,
		ModeHazardMitigation,
		ModeFaultMitigation,
		ModeWaitingForReset,
		ModeFailsafePowerFail,
		ModeHazardPowerFail,
	}
}

// Valid reports whether m is one of the six defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < numModes
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MODE(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode returns the mode named s (as produced by Mode.String).
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Inputs is one cycle's worth of sensor and authorization signals.
// Every field except ResetAuthorized is true when the condition is nominal.
type Inputs struct {
	GasOK           bool
	TempOK          bool
	PowerOK         bool
	FanCurrentOK    bool
	VentFlowOK      bool
	ResetAuthorized bool // operator has authorized a return to standby
}

// NominalInputs returns inputs with every sensor reporting ok and no reset request.
func NominalInputs() Inputs {
	return Inputs{
		GasOK:        true,
		TempOK:       true,
		PowerOK:      true,
		FanCurrentOK: true,
		VentFlowOK:   true,
	}
}

// Conditions are derived from Inputs every cycle and never stored.
type Conditions struct {
	Hazard          bool
	Safe            bool
	PowerFail       bool
	MitigationFault bool
	ResetAuthorized bool
}

// Outputs is the actuator drive pattern. true = engaged / active.
type Outputs struct {
	Fan             bool
	BackupPower     bool
	ShutoffValve    bool
	Alarm           bool
	Alert           bool
	VisualIndicator bool
}

// EventType identifies a published interlock event.
type EventType string

const (
	EventModeChange EventType = "MODE_CHANGE"
)

// Event represents a mode transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      Mode
	To        Mode
	Inputs    Inputs
	Outputs   Outputs
}

// Sample is a single timestamped reading of the inputs.
type Sample struct {
	Inputs Inputs
	Time   time.Time
}

// Counts tracks mode entries and control cycles since startup.
type Counts struct {
	Cycles  int
	Entries [numModes]int
}

// Entered returns how many times mode m was entered.
func (c Counts) Entered(m Mode) int {
	if !m.Valid() {
		return 0
	}
	return c.Entries[m]
}

// Transitions returns the total number of mode changes.
func (c Counts) Transitions() int {
	n := 0
	for _, e := range c.Entries {
		n += e
	}
	return n
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Mode      Mode
	Counts    Counts
}
