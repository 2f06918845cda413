// Package logic contains the pure control core for the exhaust-fan
// controller: wrap-safe countdown arithmetic, the motion qualification
// filter, the LED blink pattern, and the control state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injected: a wrapping uint32 microsecond
// counter for the countdowns and a wall-clock time.Time for event stamps.
package logic

import "time"

// Tuned timing constants, in microseconds unless noted. These values were
// calibrated against the installed sensor/fan hardware; changing them
// changes behavior, not just responsiveness.
const (
	// DelayTime is how long motion must have been qualified before the
	// fan starts (gives the occupant time to leave).
	DelayTime uint32 = 5 * 60 * 1000 * 1000

	// RunTime is how long the fan runs once activated.
	RunTime uint32 = 8 * 60 * 1000 * 1000

	// HeartbeatBlinkTime is the LED off-phase while idle with no
	// countdown pending.
	HeartbeatBlinkTime uint32 = 5 * 1000 * 1000

	// WaitingBlinkTime is the LED off-phase while the activation delay
	// is counting down.
	WaitingBlinkTime uint32 = 100 * 1000

	// BlinkPulseTime is the LED on-phase, fixed regardless of period.
	BlinkPulseTime uint32 = 100 * 1000

	// BlockDetectionDelay suppresses re-entry to Detected after a
	// detection, while the sensor settles.
	BlockDetectionDelay uint32 = 3 * 1000 * 1000

	// MotionBlockAfterReset ignores the motion sensor entirely after the
	// fan shuts off; residual airflow otherwise re-triggers it.
	MotionBlockAfterReset uint32 = 5 * BlockDetectionDelay

	// DetectionInterDelay spaces pushes into the detection bit history.
	DetectionInterDelay uint32 = 100 * 1000
)

// Qualifier tuning (sample counts / raw ADC units, not time).
const (
	// IIRCoef weights the rolling average in the low-pass filter:
	// filtered = avg*IIRCoef + raw*(1-IIRCoef).
	IIRCoef = 0.40

	// MinThreshold is the absolute noise floor in raw ADC units,
	// preventing division-by-noise triggers when the average is near zero.
	MinThreshold = 20

	// ThresholdMult is how far above the noise floor a sample must spike
	// to count as an instantaneous detection.
	ThresholdMult = 4

	// FilterLength is the size of the rolling-average sample history.
	FilterLength = 10
)

// Blocking debounce pauses requested from the daemon shell. These are the
// only two places the system deliberately stalls.
const (
	// ManualOnDebounce follows a fan activation, so a bouncing
	// pushbutton is not re-read as an immediate toggle-off.
	ManualOnDebounce = 350 * time.Millisecond

	// ManualOffDebounce follows a manual deactivation.
	ManualOffDebounce = 3 * time.Second
)

// State is the operating state of the control state machine.
type State string

const (
	StateIdle     State = "IDLE"
	StateDetected State = "DETECTED"
	StateActivate State = "ACTIVATE"
	StateReset    State = "RESET"
)

// EventType identifies a control event to be published.
type EventType string

const (
	EventMotion EventType = "MOTION"
	EventFanOn  EventType = "FAN_ON"
	EventFanOff EventType = "FAN_OFF"
)

// Trigger records why an activation or deactivation happened.
type Trigger string

const (
	TriggerMotion  Trigger = "MOTION"  // runtime refresh: motion while running
	TriggerTimer   Trigger = "TIMER"   // activation delay expired
	TriggerManual  Trigger = "MANUAL"  // pushbutton
	TriggerRuntime Trigger = "RUNTIME" // fan runtime expired
)

// Event is a state-entry notification. Observational only; control never
// depends on an event being delivered.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Trigger    Trigger
	FanRunning bool
}

// Input is a single tick's worth of sampled hardware state.
type Input struct {
	// Raw is the 8-bit analog motion-sensor sample.
	Raw uint8
	// Button is the manual-activate pushbutton level.
	Button bool
	// Micros is the wrapping monotonic microsecond counter.
	Micros uint32
	// Time stamps any events emitted this tick.
	Time time.Time
}

// Output is what the daemon shell must apply after a tick.
type Output struct {
	// Relay and LED are the desired actuator levels.
	Relay bool
	LED   bool
	// Events to publish, in order.
	Events []Event
	// Sleep, if nonzero, is a deliberate blocking debounce pause the
	// shell must perform before the next tick is processed.
	Sleep time.Duration
}

// EventCounts tracks control events since startup.
type EventCounts struct {
	Motion    int
	FanOn     int
	FanOff    int
	ManualOn  int
	ManualOff int
}
