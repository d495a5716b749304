// Package status provides a thread-safe status tracker for the gas-interlock daemon.
// It is read by HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gas-interlock/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	PinsFile    string // empty = built-in pin map
	BufferSize  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	Outputs       logic.Outputs
	Inputs        logic.Inputs
	Ready         bool
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	BootID        string
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Conditions returns the conditions derived from the last inputs.
func (s Snapshot) Conditions() logic.Conditions {
	return logic.Derive(s.Inputs)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot id and config.
// Until the first Update it reports the standby pattern and Ready=false.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      logic.ModeStandby,
			Outputs:   logic.OutputsFor(logic.ModeStandby),
			StartTime: startTime,
			BootID:    bootID,
			Config:    cfg,
		},
	}
}

// Update publishes mode, outputs, inputs and counters together so readers
// never observe outputs that belong to a different mode.
// Called from runLoop on every tick.
func (t *Tracker) Update(mode logic.Mode, outputs logic.Outputs, inputs logic.Inputs, ready bool, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Outputs = outputs
	t.snap.Inputs = inputs
	t.snap.Ready = ready
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
