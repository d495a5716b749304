// Package gpio provides sensor input reading and actuator output driving
// with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/gas-interlock/internal/logic"

// Reader reads the six interlock inputs.
type Reader interface {
	// Read returns the logical input states (true = nominal, except
	// ResetAuthorized where true = reset requested).
	Read() (logic.Inputs, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the six actuator outputs.
type Writer interface {
	// Write asserts the given pattern on the output lines.
	Write(out logic.Outputs) error

	// Close releases GPIO resources.
	Close() error
}

// HoldOnRelease reports whether a writer closing after last must leave its
// output lines driven. Only the all-off standby pattern is released, so a
// shutdown during a hazard keeps ventilation, shutoff and alarms asserted.
func HoldOnRelease(last logic.Outputs) bool {
	return last != logic.Outputs{}
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinGas        = 5
	DefaultPinTemp       = 6
	DefaultPinPower      = 13
	DefaultPinFanCurrent = 19
	DefaultPinVentFlow   = 26
	DefaultPinReset      = 16

	DefaultPinFan          = 17
	DefaultPinBackupPower  = 27
	DefaultPinShutoffValve = 22
	DefaultPinAlarm        = 23
	DefaultPinAlert        = 24
	DefaultPinVisual       = 25
)
