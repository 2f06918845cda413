package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/exhaust-fan/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"dur": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Exhaust Fan</title>
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
<h1>Exhaust Fan</h1>

<table>
<tr><th>Fan</th><td class="{{if .FanRunning}}on{{else}}off{{end}}">{{onOff .FanRunning}}</td></tr>
<tr><th>State</th><td>{{.State}}</td></tr>
<tr><th>Motion</th><td class="{{if .Motion}}on{{else}}off{{end}}">{{if .Motion}}DETECTED{{else}}quiet{{end}}</td></tr>
{{if gt .DelayRemaining 0}}<tr><th>Fan starts in</th><td>{{dur .DelayRemaining}}</td></tr>{{end}}
{{if .FanRunning}}<tr><th>Fan stops in</th><td>{{dur .RunRemaining}}</td></tr>{{end}}
{{if gt .MotionBlock 0}}<tr><th>Sensor blocked for</th><td>{{dur .MotionBlock}}</td></tr>{{end}}
</table>

<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{with .Network}}<tr><th>Network</th><td>{{.Status}} {{.IP}}{{if .SSID}} ({{.SSID}}){{end}}</td></tr>{{end}}
</table>

<table>
<tr><th>Motion events</th><td>{{.Counts.Motion}}</td></tr>
<tr><th>Fan starts</th><td>{{.Counts.FanOn}} ({{.Counts.ManualOn}} manual)</td></tr>
<tr><th>Fan stops</th><td>{{.Counts.FanOff}} ({{.Counts.ManualOff}} manual)</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("web: render template: %v", err)
	}
}
