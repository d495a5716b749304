package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gas-interlock/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Mode          string         `json:"mode"`
	Ready         bool           `json:"ready"`
	Inputs        InputsJSON     `json:"inputs"`
	Conditions    ConditionsJSON `json:"conditions"`
	Outputs       OutputsJSON    `json:"outputs"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	BootID        string         `json:"boot_id,omitempty"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// InputsJSON is the JSON representation of the six inputs.
type InputsJSON struct {
	GasOK           bool `json:"gas_ok"`
	TempOK          bool `json:"temp_ok"`
	PowerOK         bool `json:"power_ok"`
	FanCurrentOK    bool `json:"fan_current_ok"`
	VentFlowOK      bool `json:"vent_flow_ok"`
	ResetAuthorized bool `json:"reset_authorized"`
}

// ConditionsJSON is the JSON representation of the derived conditions.
type ConditionsJSON struct {
	Hazard          bool `json:"hazard"`
	Safe            bool `json:"safe"`
	PowerFail       bool `json:"power_fail"`
	MitigationFault bool `json:"mitigation_fault"`
	ResetAuthorized bool `json:"reset_authorized"`
}

// OutputsJSON is the JSON representation of the actuator pattern.
type OutputsJSON struct {
	Fan             bool `json:"fan"`
	BackupPower     bool `json:"backup_power"`
	ShutoffValve    bool `json:"shutoff_valve"`
	Alarm           bool `json:"alarm"`
	Alert           bool `json:"alert"`
	VisualIndicator bool `json:"visual_indicator"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle and mode entry counters.
type CountsJSON struct {
	Cycles      int            `json:"cycles"`
	Transitions int            `json:"transitions"`
	Entries     map[string]int `json:"entries"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	PinsFile    string `json:"pins_file,omitempty"`
	BufferSize  int    `json:"buffer_size"`
}

// NewInputsJSON converts inputs for encoding.
func NewInputsJSON(in logic.Inputs) InputsJSON {
	return InputsJSON{
		GasOK:           in.GasOK,
		TempOK:          in.TempOK,
		PowerOK:         in.PowerOK,
		FanCurrentOK:    in.FanCurrentOK,
		VentFlowOK:      in.VentFlowOK,
		ResetAuthorized: in.ResetAuthorized,
	}
}

// NewOutputsJSON converts an actuator pattern for encoding.
func NewOutputsJSON(out logic.Outputs) OutputsJSON {
	return OutputsJSON{
		Fan:             out.Fan,
		BackupPower:     out.BackupPower,
		ShutoffValve:    out.ShutoffValve,
		Alarm:           out.Alarm,
		Alert:           out.Alert,
		VisualIndicator: out.VisualIndicator,
	}
}

func newConditionsJSON(c logic.Conditions) ConditionsJSON {
	return ConditionsJSON{
		Hazard:          c.Hazard,
		Safe:            c.Safe,
		PowerFail:       c.PowerFail,
		MitigationFault: c.MitigationFault,
		ResetAuthorized: c.ResetAuthorized,
	}
}

func newCountsJSON(c logic.Counts) CountsJSON {
	entries := make(map[string]int, len(logic.Modes()))
	for _, m := range logic.Modes() {
		entries[m.String()] = c.Entered(m)
	}
	return CountsJSON{
		Cycles:      c.Cycles,
		Transitions: c.Transitions(),
		Entries:     entries,
	}
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Mode:          snap.Mode.String(),
		Ready:         snap.Ready,
		Inputs:        NewInputsJSON(snap.Inputs),
		Conditions:    newConditionsJSON(snap.Conditions()),
		Outputs:       NewOutputsJSON(snap.Outputs),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		BootID:        snap.BootID,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        newCountsJSON(snap.Counts),
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			PinsFile:    snap.Config.PinsFile,
			BufferSize:  snap.Config.BufferSize,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
