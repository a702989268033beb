package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/firatmio/cardioguard-mg/internal/status"
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
<title>{{.Config.DeviceName}}</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.streaming { color: green; font-weight: bold; }
.idle { color: #888; }
.ectopic { color: red; font-weight: bold; }
.sinus { color: green; }
.connected { color: green; }
.disconnected { color: red; }
canvas { width: 100%; height: 160px; border: 1px solid #ddd; background: #fafafa; }
</style>
</head>
<body>
<h1>{{.Config.DeviceName}}</h1>

<canvas id="ecg" width="640" height="160"></canvas>

<h2>Session</h2>
<table>
<tr><th>Session</th><td class="{{if .SessionActive}}streaming{{else}}idle{{end}}">{{if .SessionActive}}STREAMING{{else}}IDLE{{end}}</td></tr>
<tr><th>Rhythm</th><td class="{{if .Ectopic}}ectopic{{else}}sinus{{end}}">{{if .Ectopic}}ECTOPIC{{else}}SINUS{{end}}</td></tr>
<tr><th>Heart Rate</th><td>{{printf "%.0f" .RateBPM}} BPM</td></tr>
<tr><th>R-R Interval</th><td>{{printf "%.0f" .RRSamples}} samples</td></tr>
<tr><th>Battery</th><td>{{.BatteryPercent}}%</td></tr>
<tr><th>Packets</th><td>{{.PacketsSent}}</td></tr>
<tr><th>Beats</th><td>{{.Beats}}</td></tr>
</table>

<h2>Link</h2>
<table>
<tr><th>Broker</th><td class="{{if .LinkConnected}}connected{{else}}disconnected{{end}}">{{if .LinkConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
<tr><th>URL</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Firmware</th><td>{{.Config.FirmwareVersion}}</td></tr>
<tr><th>Sample Rate</th><td>{{printf "%.0f" .Config.SampleRateHz}} Hz</td></tr>
<tr><th>Packet</th><td>{{.Config.SamplesPerPacket}} samples / {{.Config.PacketIntervalMs}}ms</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var canvas = document.getElementById("ecg");
  var ctx = canvas.getContext("2d");
  var buf = new Array(canvas.width).fill(0);

  function draw() {
    ctx.clearRect(0, 0, canvas.width, canvas.height);
    ctx.strokeStyle = "#c00";
    ctx.beginPath();
    var mid = canvas.height * 0.7;
    var scale = canvas.height / 3.0;
    for (var x = 0; x < buf.length; x++) {
      var y = mid - buf[x] * scale;
      if (x === 0) ctx.moveTo(x, y); else ctx.lineTo(x, y);
    }
    ctx.stroke();
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var sock = new WebSocket(proto + location.host + "/ws");
    sock.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        buf = buf.slice(msg.mv.length).concat(msg.mv);
        draw();
      } catch (e) {}
    };
    sock.onclose = function() { setTimeout(connect, 2000); };
  }

  draw();
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has an Uptime() method but the template wants a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
