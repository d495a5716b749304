package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/gas-interlock/internal/logic"
)

func hazardInputs() logic.Inputs {
	in := logic.NominalInputs()
	in.GasOK = false
	return in
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, "boot-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.BootID != "boot-1" {
		t.Errorf("BootID: got %q, want boot-1", snap.BootID)
	}
	if snap.Config.PollMs != 100 {
		t.Errorf("Config.PollMs: got %d, want 100", snap.Config.PollMs)
	}
	if snap.Mode != logic.ModeStandby {
		t.Errorf("Mode: got %s, want STANDBY", snap.Mode)
	}
	if snap.Outputs != (logic.Outputs{}) {
		t.Errorf("Outputs: got %+v, want all off", snap.Outputs)
	}
	if snap.Ready {
		t.Error("expected Ready=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	var counts logic.Counts
	counts.Cycles = 12
	counts.Entries[logic.ModeHazardMitigation] = 2

	tr.Update(logic.ModeHazardMitigation, logic.OutputsFor(logic.ModeHazardMitigation), hazardInputs(), true, counts)

	snap := tr.Snapshot()
	if snap.Mode != logic.ModeHazardMitigation {
		t.Errorf("Mode: got %s, want HAZARD_MITIGATION", snap.Mode)
	}
	if !snap.Outputs.Fan || !snap.Outputs.ShutoffValve || snap.Outputs.BackupPower {
		t.Errorf("Outputs: got %+v", snap.Outputs)
	}
	if snap.Inputs.GasOK {
		t.Error("expected Inputs.GasOK=false")
	}
	if !snap.Ready {
		t.Error("expected Ready=true")
	}
	if snap.Counts.Cycles != 12 {
		t.Errorf("Counts.Cycles: got %d, want 12", snap.Counts.Cycles)
	}
	if !snap.Conditions().Hazard {
		t.Error("expected derived hazard condition")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	tr.Update(logic.ModeWaitingForReset, logic.OutputsFor(logic.ModeWaitingForReset), logic.NominalInputs(), true, logic.Counts{})

	snap1 := tr.Snapshot()

	tr.Update(logic.ModeStandby, logic.OutputsFor(logic.ModeStandby), logic.NominalInputs(), true, logic.Counts{})

	if snap1.Mode != logic.ModeWaitingForReset {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if !snap1.Outputs.Alarm {
		t.Error("snapshot should be a copy; Outputs were modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var counts logic.Counts
	counts.Cycles = 9000
	counts.Entries[logic.ModeHazardPowerFail] = 1
	counts.Entries[logic.ModeHazardMitigation] = 2

	in := hazardInputs()
	in.PowerOK = false

	snap := Snapshot{
		Mode:          logic.ModeHazardPowerFail,
		Outputs:       logic.OutputsFor(logic.ModeHazardPowerFail),
		Inputs:        in,
		Ready:         true,
		Counts:        counts,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		BootID:        "b00t",
		MQTTConnected: true,
		Config:        Config{PollMs: 100, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":80", BufferSize: 64},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "HAZARD_POWER_FAIL" {
		t.Errorf("Mode: got %q, want HAZARD_POWER_FAIL", s.Mode)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	want := OutputsJSON{Fan: true, BackupPower: true, ShutoffValve: true, Alarm: true, Alert: true, VisualIndicator: true}
	if s.Outputs != want {
		t.Errorf("Outputs: got %+v, want %+v", s.Outputs, want)
	}
	if s.Inputs.GasOK || s.Inputs.PowerOK || !s.Inputs.TempOK {
		t.Errorf("Inputs: got %+v", s.Inputs)
	}
	if !s.Conditions.Hazard || s.Conditions.Safe || !s.Conditions.PowerFail {
		t.Errorf("Conditions: got %+v", s.Conditions)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.BootID != "b00t" {
		t.Errorf("BootID: got %q", s.BootID)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.Cycles != 9000 || s.Counts.Transitions != 3 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Counts.Entries["HAZARD_MITIGATION"] != 2 {
		t.Errorf("Counts.Entries[HAZARD_MITIGATION]: got %d, want 2", s.Counts.Entries["HAZARD_MITIGATION"])
	}
	if len(s.Counts.Entries) != 6 {
		t.Errorf("expected an entry per mode, got %d", len(s.Counts.Entries))
	}
	if s.Config.BufferSize != 64 {
		t.Errorf("Config.BufferSize: got %d, want 64", s.Config.BufferSize)
	}
	// Event and Reason should be omitted
	if s.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", s.Event)
	}
	if s.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", s.Reason)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Mode:      logic.ModeStandby,
		Ready:     true,
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Mode != "STANDBY" {
		t.Errorf("Mode: got %q, want STANDBY", parsed.Status.Mode)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if _, exists := status["network"]; exists {
		t.Error("network should be omitted when nil")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		modes := logic.Modes()
		for i := 0; i < 1000; i++ {
			m := modes[i%len(modes)]
			tr.Update(m, logic.OutputsFor(m), logic.NominalInputs(), true, logic.Counts{Cycles: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader: mode and outputs must always belong together
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			if snap.Outputs != logic.OutputsFor(snap.Mode) {
				t.Errorf("torn snapshot: mode %s with outputs %+v", snap.Mode, snap.Outputs)
				return
			}
		}
	}()

	wg.Wait()
}
