package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gas-interlock/internal/logic"
	"github.com/sweeney/gas-interlock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Gas Interlock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.standby { color: green; font-weight: bold; }
.alert { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Gas Interlock{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Mode</h2>
<table>
<tr><th>Mode</th><td id="mode" class="{{if .Standby}}standby{{else}}alert{{end}}">{{.Mode}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
{{range .OutputRows}}<tr><th>{{.Name}}</th><td id="out-{{.Key}}" class="{{if .On}}on{{else}}off{{end}}">{{if .On}}ON{{else}}OFF{{end}}</td></tr>
{{end}}</table>

<h2>Inputs</h2>
<table>
{{range .InputRows}}<tr><th>{{.Name}}</th><td id="in-{{.Key}}" class="{{if .On}}on{{else}}off{{end}}">{{if .On}}yes{{else}}no{{end}}</td></tr>
{{end}}</table>

<h2>Conditions</h2>
<table>
{{range .ConditionRows}}<tr><th>{{.Name}}</th><td class="{{if .On}}on{{else}}off{{end}}">{{if .On}}yes{{else}}no{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Mode Entries</h2>
<table>
{{range .EntryRows}}<tr><th>{{.Mode}}</th><td>{{.Count}}</td></tr>
{{end}}<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if .BootID}}<tr><th>Boot</th><td>{{.BootID}}</td></tr>{{end}}
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Pins</th><td>{{if .Config.PinsFile}}{{.Config.PinsFile}}{{else}}built-in{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "safety/gas-interlock/events";
  var dot = document.getElementById("live-dot");
  var modeEl = document.getElementById("mode");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setFlags(prefix, flags, onText, offText) {
    for (var k in flags) {
      var el = document.getElementById(prefix + k);
      if (!el) continue;
      el.textContent = flags[k] ? onText : offText;
      el.className = flags[k] ? "on" : "off";
    }
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.interlock) {
        modeEl.textContent = msg.interlock.to;
        modeEl.className = msg.interlock.to === "STANDBY" ? "standby" : "alert";
        setFlags("out-", msg.interlock.outputs, "ON", "OFF");
        setFlags("in-", msg.interlock.inputs, "yes", "no");
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

type flagRow struct {
	Name string
	Key  string
	On   bool
}

type entryRow struct {
	Mode  logic.Mode
	Count int
}

func outputRows(o logic.Outputs) []flagRow {
	return []flagRow{
		{"Fan", "fan", o.Fan},
		{"Backup Power", "backup_power", o.BackupPower},
		{"Shutoff Valve", "shutoff_valve", o.ShutoffValve},
		{"Alarm", "alarm", o.Alarm},
		{"Alert", "alert", o.Alert},
		{"Visual Indicator", "visual_indicator", o.VisualIndicator},
	}
}

func inputRows(in logic.Inputs) []flagRow {
	return []flagRow{
		{"Gas OK", "gas_ok", in.GasOK},
		{"Temperature OK", "temp_ok", in.TempOK},
		{"Mains Power OK", "power_ok", in.PowerOK},
		{"Fan Current OK", "fan_current_ok", in.FanCurrentOK},
		{"Vent Flow OK", "vent_flow_ok", in.VentFlowOK},
		{"Reset Authorized", "reset_authorized", in.ResetAuthorized},
	}
}

func conditionRows(c logic.Conditions) []flagRow {
	return []flagRow{
		{"Hazard", "hazard", c.Hazard},
		{"Safe", "safe", c.Safe},
		{"Power Fail", "power_fail", c.PowerFail},
		{"Mitigation Fault", "mitigation_fault", c.MitigationFault},
	}
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	entries := make([]entryRow, 0, len(logic.Modes()))
	for _, m := range logic.Modes() {
		entries = append(entries, entryRow{Mode: m, Count: snap.Counts.Entered(m)})
	}

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime        time.Duration
		Standby       bool
		OutputRows    []flagRow
		InputRows     []flagRow
		ConditionRows []flagRow
		EntryRows     []entryRow
	}{
		Snapshot:      snap,
		Uptime:        snap.Uptime(),
		Standby:       snap.Mode == logic.ModeStandby,
		OutputRows:    outputRows(snap.Outputs),
		InputRows:     inputRows(snap.Inputs),
		ConditionRows: conditionRows(snap.Conditions()),
		EntryRows:     entries,
	}
	indexTmpl.Execute(w, data)
}
