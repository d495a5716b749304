package logic

import "time"

// Monitor drives a Machine from timestamped samples and records what the
// daemon needs to report: mode changes, counters and heartbeats.
type Monitor struct {
	machine       *Machine
	lastInputs    Inputs
	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor around a fresh machine in ModeStandby.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(startTime time.Time) *Monitor {
	return &Monitor{
		machine:       NewMachine(),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process runs exactly one control cycle and returns the resulting events.
// At most one event is returned, and only when the mode changed.
func (m *Monitor) Process(s Sample) []Event {
	from := m.machine.Mode()
	m.machine.Update(s.Inputs)
	to := m.machine.Mode()

	m.lastInputs = s.Inputs
	m.counts.Cycles++

	if from == to {
		return nil
	}

	if to.Valid() {
		m.counts.Entries[to]++
	}

	return []Event{{
		Timestamp: s.Time,
		Type:      EventModeChange,
		From:      from,
		To:        to,
		Inputs:    s.Inputs,
		Outputs:   m.machine.Outputs(),
	}}
}

// Ready reports whether at least one cycle has been processed.
func (m *Monitor) Ready() bool {
	return m.counts.Cycles > 0
}

// Mode returns the current mode.
func (m *Monitor) Mode() Mode {
	return m.machine.Mode()
}

// Outputs returns the current actuator pattern.
func (m *Monitor) Outputs() Outputs {
	return m.machine.Outputs()
}

// LastInputs returns the inputs of the most recent cycle.
func (m *Monitor) LastInputs() Inputs {
	return m.lastInputs
}

// Counts returns a copy of the counters.
func (m *Monitor) Counts() Counts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if no cycle has run yet, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.Ready() {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Mode:      m.machine.Mode(),
		Counts:    m.counts,
	}
}
