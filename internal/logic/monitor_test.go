package logic

import (
	"testing"
	"time"
)

var monitorStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewMonitor(t *testing.T) {
	m := NewMonitor(monitorStart)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if m.Ready() {
		t.Error("new monitor should not be ready")
	}
	if m.Mode() != ModeStandby {
		t.Errorf("expected STANDBY, got %s", m.Mode())
	}
	if !m.startTime.Equal(monitorStart) {
		t.Errorf("expected startTime %v, got %v", monitorStart, m.startTime)
	}
	if !m.lastHeartbeat.Equal(monitorStart) {
		t.Errorf("expected lastHeartbeat %v, got %v", monitorStart, m.lastHeartbeat)
	}
}

func TestProcessNoEventWithoutModeChange(t *testing.T) {
	m := NewMonitor(monitorStart)

	for i := 0; i < 10; i++ {
		events := m.Process(Sample{Inputs: NominalInputs(), Time: monitorStart.Add(time.Duration(i) * 100 * time.Millisecond)})
		if len(events) != 0 {
			t.Errorf("iteration %d: expected no events, got %d", i, len(events))
		}
	}

	if !m.Ready() {
		t.Error("should be ready after processing")
	}
	if m.Counts().Cycles != 10 {
		t.Errorf("expected 10 cycles, got %d", m.Counts().Cycles)
	}
	if m.Counts().Transitions() != 0 {
		t.Errorf("expected 0 transitions, got %d", m.Counts().Transitions())
	}
}

func TestProcessEmitsModeChange(t *testing.T) {
	m := NewMonitor(monitorStart)
	in := NominalInputs()
	in.GasOK = false
	now := monitorStart.Add(time.Second)

	events := m.Process(Sample{Inputs: in, Time: now})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.Type != EventModeChange {
		t.Errorf("expected MODE_CHANGE, got %s", e.Type)
	}
	if e.From != ModeStandby || e.To != ModeHazardMitigation {
		t.Errorf("expected STANDBY -> HAZARD_MITIGATION, got %s -> %s", e.From, e.To)
	}
	if e.Inputs != in {
		t.Errorf("event inputs %+v, want %+v", e.Inputs, in)
	}
	if e.Outputs != OutputsFor(ModeHazardMitigation) {
		t.Errorf("event outputs %+v", e.Outputs)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("unexpected timestamp: %v", e.Timestamp)
	}
	if m.LastInputs() != in {
		t.Errorf("LastInputs: got %+v", m.LastInputs())
	}
}

func TestCountsTrackEntries(t *testing.T) {
	m := NewMonitor(monitorStart)
	in := NominalInputs()

	feed := func(change func(*Inputs)) {
		change(&in)
		m.Process(Sample{Inputs: in, Time: monitorStart})
	}

	feed(func(i *Inputs) { i.GasOK = false })          // -> HAZARD_MITIGATION
	feed(func(i *Inputs) { i.GasOK = true })           // -> WAITING_FOR_RESET
	feed(func(i *Inputs) { i.GasOK = false })          // -> HAZARD_MITIGATION
	feed(func(i *Inputs) { i.PowerOK = false })        // -> HAZARD_POWER_FAIL
	feed(func(i *Inputs) { i.PowerOK = true })         // -> HAZARD_MITIGATION
	feed(func(i *Inputs) { i.GasOK = true })           // -> WAITING_FOR_RESET
	feed(func(i *Inputs) { i.ResetAuthorized = true }) // -> STANDBY

	c := m.Counts()
	if c.Cycles != 7 {
		t.Errorf("Cycles: got %d, want 7", c.Cycles)
	}
	if c.Entered(ModeHazardMitigation) != 3 {
		t.Errorf("HAZARD_MITIGATION entries: got %d, want 3", c.Entered(ModeHazardMitigation))
	}
	if c.Entered(ModeWaitingForReset) != 2 {
		t.Errorf("WAITING_FOR_RESET entries: got %d, want 2", c.Entered(ModeWaitingForReset))
	}
	if c.Entered(ModeHazardPowerFail) != 1 {
		t.Errorf("HAZARD_POWER_FAIL entries: got %d, want 1", c.Entered(ModeHazardPowerFail))
	}
	if c.Entered(ModeStandby) != 1 {
		t.Errorf("STANDBY entries: got %d, want 1", c.Entered(ModeStandby))
	}
	if c.Transitions() != 7 {
		t.Errorf("Transitions: got %d, want 7", c.Transitions())
	}
	if c.Entered(Mode(-1)) != 0 {
		t.Error("invalid mode should report 0 entries")
	}
}

// Heartbeat tests

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	m := NewMonitor(monitorStart)
	m.Process(Sample{Inputs: NominalInputs(), Time: monitorStart})

	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), 0); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), -1*time.Minute); hb != nil {
		t.Error("expected nil heartbeat with negative interval")
	}
}

func TestCheckHeartbeatBeforeFirstCycle(t *testing.T) {
	m := NewMonitor(monitorStart)

	if hb := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected nil heartbeat before any cycle")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	m := NewMonitor(monitorStart)
	m.Process(Sample{Inputs: NominalInputs(), Time: monitorStart})

	if hb := m.CheckHeartbeat(monitorStart.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected nil heartbeat before interval")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	m := NewMonitor(monitorStart)
	in := NominalInputs()
	in.TempOK = false
	m.Process(Sample{Inputs: in, Time: monitorStart})

	checkTime := monitorStart.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(checkTime, 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("Timestamp: got %v, want %v", hb.Timestamp, checkTime)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", hb.Uptime)
	}
	if hb.Mode != ModeHazardMitigation {
		t.Errorf("Mode: got %s, want HAZARD_MITIGATION", hb.Mode)
	}
	if hb.Counts.Entered(ModeHazardMitigation) != 1 {
		t.Errorf("Counts: got %+v", hb.Counts)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	m := NewMonitor(monitorStart)
	m.Process(Sample{Inputs: NominalInputs(), Time: monitorStart})

	t1 := monitorStart.Add(15 * time.Minute)
	if hb := m.CheckHeartbeat(t1, 15*time.Minute); hb == nil {
		t.Fatal("expected first heartbeat")
	}

	if hb := m.CheckHeartbeat(t1.Add(time.Second), 15*time.Minute); hb != nil {
		t.Error("expected no heartbeat immediately after previous one")
	}

	if hb := m.CheckHeartbeat(t1.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Error("expected second heartbeat after another interval")
	}
}

func TestHeartbeatCountsAreCopies(t *testing.T) {
	m := NewMonitor(monitorStart)
	in := NominalInputs()
	in.GasOK = false
	m.Process(Sample{Inputs: in, Time: monitorStart})

	hb1 := m.CheckHeartbeat(monitorStart.Add(15*time.Minute), 15*time.Minute)
	if hb1 == nil {
		t.Fatal("expected heartbeat")
	}

	in.GasOK = true
	m.Process(Sample{Inputs: in, Time: monitorStart.Add(16 * time.Minute)})

	hb2 := m.CheckHeartbeat(monitorStart.Add(30*time.Minute), 15*time.Minute)
	if hb2 == nil {
		t.Fatal("expected second heartbeat")
	}

	if hb1.Counts.Transitions() != 1 {
		t.Errorf("first heartbeat transitions: got %d, want 1", hb1.Counts.Transitions())
	}
	if hb2.Counts.Transitions() != 2 {
		t.Errorf("second heartbeat transitions: got %d, want 2", hb2.Counts.Transitions())
	}
	if hb2.Mode != ModeWaitingForReset {
		t.Errorf("second heartbeat mode: got %s", hb2.Mode)
	}
}
