// Package status provides a thread-safe status tracker for the exhaust-fan
// daemon. It is read by the HTTP handlers and feeds the MQTT system-event
// payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/exhaust-fan/internal/logic"
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
	ADCPath     string
	PinButton   int
	PinRelay    int
	PinLED      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State          logic.State
	FanRunning     bool
	Motion         bool
	DelayRemaining time.Duration
	RunRemaining   time.Duration
	MotionBlock    time.Duration
	Counts         logic.EventCounts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the controller's observable state into the tracker.
// Called from runLoop on every tick; remaining times are in microseconds.
func (t *Tracker) Update(c *logic.Controller) {
	t.mu.Lock()
	t.snap.State = c.State()
	t.snap.FanRunning = c.FanRunning()
	t.snap.Motion = c.Motion()
	t.snap.DelayRemaining = time.Duration(c.DelayRemaining()) * time.Microsecond
	t.snap.RunRemaining = time.Duration(c.RunRemaining()) * time.Microsecond
	t.snap.MotionBlock = time.Duration(c.MotionBlockRemaining()) * time.Microsecond
	t.snap.Counts = c.Counts()
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
