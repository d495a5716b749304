// Package metrics exposes Prometheus collectors for the interlock loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/gas-interlock/internal/logic"
)

var (
	// FSMMode is 1 for the current mode and 0 for every other mode.
	FSMMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gas_interlock",
		Subsystem: "fsm",
		Name:      "mode",
		Help:      "Current interlock mode (1 = active)",
	}, []string{"mode"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_interlock",
		Subsystem: "fsm",
		Name:      "transitions_total",
		Help:      "Total mode transitions",
	}, []string{"from", "to"})

	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gas_interlock",
		Subsystem: "fsm",
		Name:      "cycles_total",
		Help:      "Total evaluation cycles",
	})

	// ActuatorOutput is 1 while the actuator is commanded on.
	ActuatorOutput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gas_interlock",
		Subsystem: "actuator",
		Name:      "output",
		Help:      "Commanded actuator state (1 = on)",
	}, []string{"actuator"})

	GPIOReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gas_interlock",
		Subsystem: "gpio",
		Name:      "read_errors_total",
		Help:      "Total sensor read failures (cycle skipped)",
	})

	GPIOWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gas_interlock",
		Subsystem: "gpio",
		Name:      "write_errors_total",
		Help:      "Total actuator write failures",
	})

	MQTTPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_interlock",
		Subsystem: "mqtt",
		Name:      "publish_errors_total",
		Help:      "Total MQTT publish failures",
	}, []string{"topic"})
)

// ObserveCycle records one evaluation cycle that moved from one mode to another.
// from == to for a cycle without a transition.
func ObserveCycle(from, to logic.Mode, out logic.Outputs) {
	CyclesTotal.Inc()
	if from != to {
		TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	}
	for _, m := range logic.Modes() {
		FSMMode.WithLabelValues(m.String()).Set(boolGauge(m == to))
	}
	ActuatorOutput.WithLabelValues("fan").Set(boolGauge(out.Fan))
	ActuatorOutput.WithLabelValues("backup_power").Set(boolGauge(out.BackupPower))
	ActuatorOutput.WithLabelValues("shutoff_valve").Set(boolGauge(out.ShutoffValve))
	ActuatorOutput.WithLabelValues("alarm").Set(boolGauge(out.Alarm))
	ActuatorOutput.WithLabelValues("alert").Set(boolGauge(out.Alert))
	ActuatorOutput.WithLabelValues("visual_indicator").Set(boolGauge(out.VisualIndicator))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
