package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/motodash/internal/acquisition"
	"github.com/sweeney/motodash/internal/settings"
	"github.com/sweeney/motodash/internal/status"
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
	"rpm": func(a acquisition.Snapshot) string {
		if !a.RPMKnown {
			return "---"
		}
		return fmt.Sprintf("%.0f", a.RPM)
	},
	"speed": func(a acquisition.Snapshot) string {
		if !a.Fix.SpeedValid {
			return "---"
		}
		return fmt.Sprintf("%.0f km/h", a.Fix.SpeedKmph)
	},
	"altitude": func(a acquisition.Snapshot) string {
		if !a.Fix.AltitudeValid {
			return "----"
		}
		return fmt.Sprintf("%.0f m", a.Fix.AltitudeM)
	},
	"position": func(a acquisition.Snapshot) string {
		if !a.Fix.LocationValid {
			return "no fix"
		}
		return fmt.Sprintf("%.6f, %.6f", a.Fix.Lat, a.Fix.Lng)
	},
	"clock": func(a acquisition.Snapshot) string {
		if !a.TimeKnown {
			return "--:--"
		}
		return a.LocalTime.Format("15:04:05")
	},
	"km": func(m float64) string {
		return fmt.Sprintf("%.1f km", m/1000)
	},
	"onoff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
	"bytes": func(n int) string {
		return settings.FormatSize(int64(n))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Moto Dash</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
img.screen { image-rendering: pixelated; width: 512px; max-width: 100%; background: #000; }
.recording { color: green; font-weight: bold; }
.waiting { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.led { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 3px; background: #ddd; }
.led.green { background: green; }
.led.orange { background: orange; }
.led.red { background: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Moto Dash {{.Version}}{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<p><img class="screen" src="/screen.png" alt="display"></p>

<h2>Ride</h2>
<table>
<tr><th>GPS</th><td class="{{if eq .Acq.State.String "RECORDING"}}recording{{else}}waiting{{end}}">{{.Acq.State}}{{if .Acq.Session}} ({{.Acq.Session}}){{end}}</td></tr>
<tr><th>RPM</th><td id="rpm">{{rpm .Acq}}</td></tr>
<tr><th>Peak RPM</th><td>{{printf "%.0f" .Acq.PeakRPM}}</td></tr>
<tr><th>Speed</th><td id="speed">{{speed .Acq}}</td></tr>
<tr><th>Altitude</th><td>{{altitude .Acq}}</td></tr>
<tr><th>Position</th><td>{{position .Acq}}</td></tr>
<tr><th>Satellites</th><td>{{if .Acq.Fix.SatellitesValid}}{{.Acq.Fix.Satellites}}{{else}}-{{end}}</td></tr>
<tr><th>Trip</th><td id="trip">{{km .Acq.TripMeters}}</td></tr>
<tr><th>Time</th><td>{{clock .Acq}}</td></tr>
<tr><th>Samples</th><td>{{.Acq.HistoryLen}}/{{.Acq.HistoryCap}}{{if .Acq.HistoryDropped}} ({{.Acq.HistoryDropped}} dropped){{end}} &middot; <a href="/history.json">history</a></td></tr>
</table>

<h2>Shift lights</h2>
<p>{{range .LEDs.LEDs}}<span class="led {{.}}"></span>{{end}}</p>

<h2>Settings</h2>
<table>
<tr><th>Max RPM</th><td>{{.Settings.MaxRPM}}</td></tr>
<tr><th>LEDs</th><td>{{onoff .Settings.LEDEnabled}} (brightness {{.Settings.LEDBrightness}})</td></tr>
<tr><th>Wi-Fi</th><td>{{onoff .Settings.WifiEnabled}}</td></tr>
<tr><th>Logo</th><td>{{.Settings.BrandLogo}}</td></tr>
<tr><th>Display style</th><td>{{.Settings.DisplayStyle}}</td></tr>
<tr><th>Screen</th><td>{{.NavState}}</td></tr>
<tr><th>History memory</th><td>{{bytes .HistoryBytes}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Telemetry</th><td>{{if eq .Config.TelemetryMs 0}}disabled{{else}}{{.Config.TelemetryMs}}ms{{end}}</td></tr>
<tr><th>GPS device</th><td>{{if .Config.GPSDevice}}{{.Config.GPSDevice}}{{else}}none{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "motodash/telemetry";
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
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
      if (msg.telemetry) {
        var tel = msg.telemetry;
        document.getElementById("rpm").textContent = tel.rpm === undefined ? "---" : tel.rpm;
        document.getElementById("speed").textContent = tel.speed_kmph === undefined ? "---" : Math.round(tel.speed_kmph) + " km/h";
        document.getElementById("trip").textContent = (tel.trip_m / 1000).toFixed(1) + " km";
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has methods, but the template needs plain fields.
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		Version      string
		HistoryBytes int
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		Version:      settings.SoftwareVersion,
		HistoryBytes: snap.Acq.HistoryLen * acquisition.SampleBytes,
	}
	return indexTmpl.Execute(w, data)
}
