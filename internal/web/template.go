package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/status"
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
	"when": func(t time.Time) string {
		if t.IsZero() {
			return "—"
		}
		return t.Local().Format("Mon Jan 2 3:04pm")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Shabbat Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Shabbat Sensor</h1>

<h2>State</h2>
<table>
<tr><th>Issur Melacha</th><td class="{{if .Inside}}on{{else}}off{{end}}">{{if .Inside}}YES{{else}}NO{{end}}</td></tr>
<tr><th>Next Candle Lighting</th><td>{{when .NextCandleLighting}}</td></tr>
<tr><th>Next Havdalah</th><td>{{when .NextHavdalah}}</td></tr>
<tr><th>Last Candle Lighting</th><td>{{when .LastCandleLighting}}</td></tr>
<tr><th>Last Havdalah</th><td>{{when .LastHavdalah}}</td></tr>
<tr><th>Next Wake</th><td>{{when .NextWake}}</td></tr>
<tr><th>Ready</th><td>{{if .Loaded}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Calendar Refresh</h2>
<table>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Succeeded</th><td>{{.RefreshOK}}</td></tr>
<tr><th>Failed</th><td>{{.RefreshFailed}}</td></tr>
<tr><th>Last Refresh</th><td>{{when .LastRefresh}}</td></tr>
{{if .LastError}}<tr><th>Last Error</th><td>{{.LastError}} ({{when .LastErrorTime}})</td></tr>{{end}}
<tr><th>Candle Lighting Times</th><td>{{.CandleCount}}</td></tr>
<tr><th>Havdalah Times</th><td>{{.HavdalahCount}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Refresh Interval</th><td>{{.Config.RefreshMs}}ms</td></tr>
<tr><th>Fetch Timeout</th><td>{{.Config.TimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
