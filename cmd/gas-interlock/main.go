// Command gas-interlock runs the gas-safety interlock: it samples the sensor
// inputs, drives the actuators from the interlock mode and publishes mode
// changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/gas-interlock/internal/config"
	"github.com/sweeney/gas-interlock/internal/gpio"
	"github.com/sweeney/gas-interlock/internal/logic"
	"github.com/sweeney/gas-interlock/internal/metrics"
	"github.com/sweeney/gas-interlock/internal/mqtt"
	"github.com/sweeney/gas-interlock/internal/status"
	"github.com/sweeney/gas-interlock/internal/web"
)

// networkFile is read at startup and on every heartbeat.
var networkFile = config.NetworkFile

func main() {
	defaults, err := config.Load()
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	poll := flag.Duration("poll", defaults.Poll, "Input sampling interval")
	broker := flag.String("broker", defaults.Broker, "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", defaults.Heartbeat, "Heartbeat interval (0 to disable)")
	pinsFile := flag.String("pins", defaults.PinsFile, "YAML pin map (empty for built-in wiring)")
	bufferSize := flag.Int("buffer", defaults.Buffer, "Messages held while the broker is unreachable")
	printState := flag.Bool("print-state", false, "Print current inputs and conditions and exit")
	httpAddr := flag.String("http", defaults.HTTPAddr, "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", defaults.WSBroker, `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	if *poll <= 0 {
		log.Fatalf("fatal: --poll must be positive, got %v", *poll)
	}

	ws := resolveWSBroker(*wsBroker, *broker)
	if err := run(*poll, *broker, *heartbeat, *pinsFile, *bufferSize, *printState, *httpAddr, ws); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, broker string, heartbeat time.Duration, pinsFile string, bufferSize int, printState bool, httpAddr, wsBroker string) error {
	pins, err := gpio.LoadPinMap(pinsFile)
	if err != nil {
		return fmt.Errorf("load pins: %w", err)
	}

	// Initialize GPIO
	reader, err := gpio.NewRealReader(pins)
	if err != nil {
		return fmt.Errorf("init gpio inputs: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if printState {
		in, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Print(formatState(in))
		return nil
	}

	writer, err := gpio.NewRealWriter(pins)
	if err != nil {
		return fmt.Errorf("init gpio outputs: %w", err)
	}
	defer writer.Close()

	bootID := uuid.NewString()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker, "gas-interlock-"+bootID[:8], bufferSize)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		PollMs:      poll.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		WSBroker:    wsBroker,
		PinsFile:    pinsFile,
		BufferSize:  bufferSize,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v broker=%s heartbeat=%v buffer=%d boot=%s", poll, broker, heartbeat, bufferSize, bootID)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(reader, writer, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, sigCh)
	publisher.Close() // flushes SHUTDOWN
	if pending, dropped := publisher.Buffered(); pending > 0 || dropped > 0 {
		log.Printf("mqtt: exiting with %d unsent messages, %d dropped", pending, dropped)
	}
	return err
}

func runLoop(reader gpio.Reader, writer gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	monitor := logic.NewMonitor(startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				metrics.MQTTPublishErrors.WithLabelValues(mqtt.TopicSystem).Inc()
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			in, err := reader.Read()
			if err != nil {
				// Skip the cycle: mode and the asserted outputs are held.
				metrics.GPIOReadErrors.Inc()
				log.Printf("gpio read error: %v (holding %s)", err, monitor.Mode())
				continue
			}

			from := monitor.Mode()
			events := monitor.Process(logic.Sample{Inputs: in, Time: t})
			out := monitor.Outputs()

			// Written every cycle so a line disturbed externally is re-asserted.
			if err := writer.Write(out); err != nil {
				metrics.GPIOWriteErrors.Inc()
				log.Printf("gpio write error: %v", err)
			}

			for _, event := range events {
				log.Printf("mode: %s -> %s", event.From, event.To)
				if err := publisher.Publish(event); err != nil {
					metrics.MQTTPublishErrors.WithLabelValues(mqtt.Topic).Inc()
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			metrics.ObserveCycle(from, monitor.Mode(), out)

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(monitor.Mode(), out, monitor.LastInputs(), monitor.Ready(), monitor.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := monitor.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v mode=%s cycles=%d transitions=%d",
					hbData.Uptime, hbData.Mode, hbData.Counts.Cycles, hbData.Counts.Transitions())

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					metrics.MQTTPublishErrors.WithLabelValues(mqtt.TopicSystem).Inc()
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func readNetworkInfo() *status.NetworkInfo {
	info, err := config.LoadNetwork(networkFile)
	if err != nil {
		log.Printf("network info: %v", err)
		return nil
	}
	return info
}

// formatState renders one reading for --print-state.
func formatState(in logic.Inputs) string {
	c := logic.Derive(in)
	return fmt.Sprintf("gas_ok=%t temp_ok=%t power_ok=%t fan_current_ok=%t vent_flow_ok=%t reset_authorized=%t\n"+
		"hazard=%t safe=%t power_fail=%t mitigation_fault=%t\n"+
		"from STANDBY: %s\n",
		in.GasOK, in.TempOK, in.PowerOK, in.FanCurrentOK, in.VentFlowOK, in.ResetAuthorized,
		c.Hazard, c.Safe, c.PowerFail, c.MitigationFault,
		logic.NextMode(logic.ModeStandby, c))
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
