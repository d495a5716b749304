package logic

// Derive computes the per-cycle conditions from raw inputs.
// Hazard and Safe are computed independently and must stay that way:
// with a three-valued sensor model both could be false at once.
func Derive(in Inputs) Conditions {
	return Conditions{
		Hazard:          !in.GasOK || !in.TempOK,
		Safe:            in.GasOK && in.TempOK,
		PowerFail:       !in.PowerOK,
		MitigationFault: !in.FanCurrentOK || !in.VentFlowOK,
		ResetAuthorized: in.ResetAuthorized,
	}
}

// rule is one row of a mode's priority table.
type rule struct {
	when func(Conditions) bool
	next Mode
}

func powerFail(c Conditions) bool       { return c.PowerFail }
func powerRestored(c Conditions) bool   { return !c.PowerFail }
func hazard(c Conditions) bool          { return c.Hazard }
func safe(c Conditions) bool            { return c.Safe }
func mitigationFault(c Conditions) bool { return c.MitigationFault }
func resetAuthorized(c Conditions) bool { return c.ResetAuthorized }

// transitions lists, per mode, the guarded transitions in priority order.
// The first matching rule wins; no match keeps the current mode.
// WaitingForReset checks hazard before reset so a reset request cannot
// clear the alarm while the hazard is still present.
var transitions = [numModes][]rule{
	ModeStandby: {
		{powerFail, ModeFailsafePowerFail},
		{hazard, ModeHazardMitigation},
	},
	ModeHazardMitigation: {
		{powerFail, ModeHazardPowerFail},
		{mitigationFault, ModeFaultMitigation},
		{safe, ModeWaitingForReset},
	},
	ModeFaultMitigation: {
		{powerFail, ModeHazardPowerFail},
		{safe, ModeWaitingForReset},
	},
	ModeWaitingForReset: {
		{powerFail, ModeFailsafePowerFail},
		{hazard, ModeHazardMitigation},
		{resetAuthorized, ModeStandby},
	},
	ModeFailsafePowerFail: {
		{powerRestored, ModeStandby},
	},
	ModeHazardPowerFail: {
		{powerRestored, ModeHazardMitigation},
	},
}

// outputTable maps each mode to its actuator pattern.
var outputTable = [numModes]Outputs{
	ModeStandby:           {},
	ModeHazardMitigation:  {Fan: true, ShutoffValve: true, Alarm: true, Alert: true, VisualIndicator: true},
	ModeFaultMitigation:   {Fan: true, ShutoffValve: true, Alarm: true, Alert: true, VisualIndicator: true},
	ModeWaitingForReset:   {Alarm: true, Alert: true, VisualIndicator: true},
	ModeFailsafePowerFail: {BackupPower: true},
	ModeHazardPowerFail:   {Fan: true, BackupPower: true, ShutoffValve: true, Alarm: true, Alert: true, VisualIndicator: true},
}

// fullMitigation is driven for a mode outside the table.
var fullMitigation = Outputs{Fan: true, BackupPower: true, ShutoffValve: true, Alarm: true, Alert: true, VisualIndicator: true}

// NextMode applies the priority table for mode to the given conditions.
// An invalid mode is returned unchanged.
func NextMode(mode Mode, c Conditions) Mode {
	if !mode.Valid() {
		return mode
	}
	for _, r := range transitions[mode] {
		if r.when(c) {
			return r.next
		}
	}
	return mode
}

// OutputsFor returns the actuator pattern for mode.
// Outputs depend on the mode alone, never on raw inputs.
func OutputsFor(mode Mode) Outputs {
	if !mode.Valid() {
		return fullMitigation
	}
	return outputTable[mode]
}

// Machine holds the current mode and its outputs.
// It is not safe for concurrent use; callers sharing it must synchronize.
type Machine struct {
	mode    Mode
	outputs Outputs
}

// NewMachine returns a machine in ModeStandby.
func NewMachine() *Machine {
	return &Machine{
		mode:    ModeStandby,
		outputs: OutputsFor(ModeStandby),
	}
}

// Update advances the machine by exactly one control cycle.
func (m *Machine) Update(in Inputs) {
	m.mode = NextMode(m.mode, Derive(in))
	m.outputs = OutputsFor(m.mode)
}

// Mode returns the mode as of the last Update.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Outputs returns the actuator pattern as of the last Update.
func (m *Machine) Outputs() Outputs {
	return m.outputs
}
