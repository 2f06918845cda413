package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/exhaust-fan/internal/logic"
)

func testConfig() Config {
	return Config{
		PollMs:      10,
		HeartbeatMs: 900000,
		Broker:      "tcp://broker.local:1883",
		HTTPAddr:    ":8080",
		ADCPath:     "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
		PinButton:   17,
		PinRelay:    27,
		PinLED:      22,
	}
}

// runningController returns a controller with the fan manually activated.
func runningController(t *testing.T) *logic.Controller {
	t.Helper()
	c := logic.NewController()
	wall := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Tick(logic.Input{Button: true, Micros: 0, Time: wall})
	c.Tick(logic.Input{Micros: 10_000, Time: wall.Add(10 * time.Millisecond)})
	c.Tick(logic.Input{Micros: 20_000, Time: wall.Add(20 * time.Millisecond)})
	if !c.FanRunning() {
		t.Fatal("setup: fan not running")
	}
	return c
}

func TestNewTrackerDefaults(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	if snap.State != logic.StateIdle {
		t.Errorf("state = %s, want IDLE", snap.State)
	}
	if snap.FanRunning {
		t.Error("fan running before any update")
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("start time = %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Broker != "tcp://broker.local:1883" {
		t.Errorf("config broker = %q", snap.Config.Broker)
	}
	if snap.Now.IsZero() {
		t.Error("snapshot Now not set")
	}
}

func TestTrackerUpdateFromController(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())
	c := runningController(t)

	tr.Update(c)
	snap := tr.Snapshot()

	if !snap.FanRunning {
		t.Error("fan running not tracked")
	}
	// One 10ms tick elapsed since activation.
	wantRun := time.Duration(logic.RunTime)*time.Microsecond - 10*time.Millisecond
	if snap.RunRemaining != wantRun {
		t.Errorf("run remaining = %v, want %v", snap.RunRemaining, wantRun)
	}
	if snap.Counts.FanOn != 1 || snap.Counts.ManualOn != 1 {
		t.Errorf("counts = %+v", snap.Counts)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())
	snap := tr.Snapshot()
	snap.FanRunning = true
	snap.Counts.FanOn = 99

	if got := tr.Snapshot(); got.FanRunning || got.Counts.FanOn != 0 {
		t.Error("mutating a snapshot leaked into the tracker")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("MQTT connected not tracked")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("MQTT disconnect not tracked")
	}
}

func TestUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, testConfig())

	up := tr.Snapshot().Uptime()
	if up < 89*time.Second || up > 2*time.Minute {
		t.Errorf("uptime = %v, want ~90s", up)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())
	tr.Update(runningController(t))
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	inner := parsed.Status

	if inner.State != "IDLE" {
		t.Errorf("state = %q, want IDLE", inner.State)
	}
	if inner.Fan != "ON" {
		t.Errorf("fan = %q, want ON", inner.Fan)
	}
	if inner.RunRemainSec != 8*60-1 {
		// 10ms elapsed since activation, truncated to whole seconds.
		t.Errorf("run remaining = %ds, want 479", inner.RunRemainSec)
	}
	if !inner.MQTT.Connected || inner.MQTT.Broker != "tcp://broker.local:1883" {
		t.Errorf("mqtt = %+v", inner.MQTT)
	}
	if inner.Counts.FanOn != 1 {
		t.Errorf("fan_on count = %d, want 1", inner.Counts.FanOn)
	}
	if inner.Config.PinRelay != 27 {
		t.Errorf("pin_relay = %d, want 27", inner.Config.PinRelay)
	}
	if inner.Event != "" {
		t.Errorf("web JSON must not carry an event, got %q", inner.Event)
	}
	if inner.Network != nil {
		t.Error("network present without SetNetwork")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "10.0.0.5", Status: "connected"})

	data := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("event = %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("reason = %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.Network == nil || parsed.Status.Network.IP != "10.0.0.5" {
		t.Errorf("network = %+v", parsed.Status.Network)
	}
}
