package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/exhaust-fan/internal/gpio"
	"github.com/sweeney/exhaust-fan/internal/logic"
	"github.com/sweeney/exhaust-fan/internal/mqtt"
	"github.com/sweeney/exhaust-fan/internal/status"
)

// rig wires the controller to fake hardware and a fake publisher the same
// way the daemon loop does, on a virtual clock.
type rig struct {
	ctrl    *logic.Controller
	hw      *gpio.FakeIO
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	micros  uint32
	wall    time.Time
	relay   bool
	led     bool
	written bool
}

func newRig() *rig {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &rig{
		ctrl:    logic.NewController(),
		hw:      gpio.NewFakeIO(nil),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(start, status.Config{Broker: "tcp://test:1883"}),
		wall:    start,
	}
}

// tick feeds one sample through the controller and applies its outputs.
func (r *rig) tick(t *testing.T, sample gpio.Sample) logic.Output {
	t.Helper()
	out := r.ctrl.Tick(logic.Input{
		Raw:    sample.Motion,
		Button: sample.Button,
		Micros: r.micros,
		Time:   r.wall,
	})

	if !r.written || out.Relay != r.relay {
		if err := r.hw.SetRelay(out.Relay); err != nil {
			t.Fatalf("set relay: %v", err)
		}
		r.relay = out.Relay
	}
	if !r.written || out.LED != r.led {
		if err := r.hw.SetLED(out.LED); err != nil {
			t.Fatalf("set LED: %v", err)
		}
		r.led = out.LED
	}
	r.written = true

	for _, e := range out.Events {
		if err := r.pub.Publish(e); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	r.tracker.Update(r.ctrl)

	// Blocking debounce pauses advance the virtual clock instead of sleeping.
	if out.Sleep > 0 {
		r.advance(out.Sleep)
	}
	return out
}

func (r *rig) advance(d time.Duration) {
	r.micros += uint32(d.Microseconds())
	r.wall = r.wall.Add(d)
}

// run ticks with the same sample at the given spacing.
func (r *rig) run(t *testing.T, sample gpio.Sample, step time.Duration, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r.tick(t, sample)
		r.advance(step)
	}
}

func publishedTypes(pub *mqtt.FakePublisher) []logic.EventType {
	var types []logic.EventType
	for _, e := range pub.Events {
		types = append(types, e.Type)
	}
	return types
}

// TestMotionCycle drives the complete automatic cycle: quiet baseline,
// sustained motion, activation delay, fan run, runtime expiry, reset.
func TestMotionCycle(t *testing.T) {
	r := newRig()

	// Quiet baseline: nothing happens.
	r.run(t, gpio.Sample{Motion: 2}, 100*time.Millisecond, 20)
	if r.hw.Relay {
		t.Fatal("relay asserted on a quiet baseline")
	}
	if len(r.pub.Events) != 0 {
		t.Fatalf("events on a quiet baseline: %v", r.pub.Events)
	}

	// Sustained motion: 8 qualifying samples, then the Detected tick.
	r.run(t, gpio.Sample{Motion: 220}, 100*time.Millisecond, 9)
	if got := publishedTypes(r.pub); len(got) != 1 || got[0] != logic.EventMotion {
		t.Fatalf("events after motion = %v, want [MOTION]", got)
	}
	if r.hw.Relay {
		t.Fatal("relay asserted before the activation delay elapsed")
	}
	snap := r.tracker.Snapshot()
	if snap.DelayRemaining == 0 {
		t.Fatal("activation delay not armed")
	}

	// Motion stops; the delay runs out and the fan starts.
	r.advance(time.Duration(logic.DelayTime) * time.Microsecond)
	r.run(t, gpio.Sample{Motion: 2}, 10*time.Millisecond, 2)
	if !r.hw.Relay {
		t.Fatal("relay not asserted after the activation delay")
	}
	if !r.hw.LED {
		t.Fatal("LED not held solid while running")
	}
	got := publishedTypes(r.pub)
	if len(got) != 2 || got[1] != logic.EventFanOn {
		t.Fatalf("events after activation = %v, want [MOTION FAN_ON]", got)
	}
	if r.pub.Events[1].Trigger != logic.TriggerTimer {
		t.Errorf("activation trigger = %s, want TIMER", r.pub.Events[1].Trigger)
	}

	// The full runtime elapses and the fan resets itself.
	r.advance(time.Duration(logic.RunTime) * time.Microsecond)
	r.run(t, gpio.Sample{Motion: 2}, 10*time.Millisecond, 2)
	if r.hw.Relay {
		t.Fatal("relay still asserted after runtime expiry")
	}
	got = publishedTypes(r.pub)
	if len(got) != 3 || got[2] != logic.EventFanOff {
		t.Fatalf("events after expiry = %v, want [MOTION FAN_ON FAN_OFF]", got)
	}
	if r.pub.Events[2].Trigger != logic.TriggerRuntime {
		t.Errorf("reset trigger = %s, want RUNTIME", r.pub.Events[2].Trigger)
	}

	snap = r.tracker.Snapshot()
	if snap.FanRunning {
		t.Error("tracker shows the fan running after reset")
	}
	if snap.MotionBlock == 0 {
		t.Error("post-shutoff motion block not armed")
	}
}

// TestManualCycle covers pushbutton on and off, including the debounce
// pauses and the relay write sequence.
func TestManualCycle(t *testing.T) {
	r := newRig()

	r.tick(t, gpio.Sample{Button: true})
	r.advance(10 * time.Millisecond)
	out := r.tick(t, gpio.Sample{})
	if out.Sleep != logic.ManualOnDebounce {
		t.Errorf("activation pause = %v, want %v", out.Sleep, logic.ManualOnDebounce)
	}
	if !r.hw.Relay {
		t.Fatal("relay not asserted on manual activation")
	}
	r.advance(10 * time.Millisecond)

	r.tick(t, gpio.Sample{Button: true})
	r.advance(10 * time.Millisecond)
	out = r.tick(t, gpio.Sample{})
	if out.Sleep != logic.ManualOffDebounce {
		t.Errorf("deactivation pause = %v, want %v", out.Sleep, logic.ManualOffDebounce)
	}
	if r.hw.Relay {
		t.Fatal("relay still asserted after manual deactivation")
	}

	want := []bool{false, true, false}
	if len(r.hw.RelayWrites) != len(want) {
		t.Fatalf("relay writes = %v, want %v", r.hw.RelayWrites, want)
	}
	for i, w := range want {
		if r.hw.RelayWrites[i] != w {
			t.Errorf("relay write %d = %v, want %v", i, r.hw.RelayWrites[i], w)
		}
	}

	got := publishedTypes(r.pub)
	if len(got) != 2 || got[0] != logic.EventFanOn || got[1] != logic.EventFanOff {
		t.Fatalf("events = %v, want [FAN_ON FAN_OFF]", got)
	}
}

// TestMotionIgnoredAfterManualOff verifies the post-shutoff block: motion
// right after a manual deactivation must not restart the fan.
func TestMotionIgnoredAfterManualOff(t *testing.T) {
	r := newRig()

	// Manual on, manual off.
	r.tick(t, gpio.Sample{Button: true})
	r.advance(10 * time.Millisecond)
	r.tick(t, gpio.Sample{})
	r.advance(10 * time.Millisecond)
	r.tick(t, gpio.Sample{Button: true})
	r.advance(10 * time.Millisecond)
	r.tick(t, gpio.Sample{}) // Reset; advances the clock past the 3s pause
	r.advance(10 * time.Millisecond)
	r.pub.Reset()

	// Hammer the sensor for the rest of the block window.
	r.run(t, gpio.Sample{Motion: 255}, 100*time.Millisecond, 110)
	if got := publishedTypes(r.pub); len(got) != 0 {
		t.Fatalf("events inside the motion block: %v", got)
	}
	if r.hw.Relay {
		t.Fatal("relay asserted inside the motion block")
	}

	// Past the block, sustained motion qualifies again.
	r.advance(3 * time.Second)
	r.run(t, gpio.Sample{Motion: 255}, 100*time.Millisecond, 9)
	if got := publishedTypes(r.pub); len(got) != 1 || got[0] != logic.EventMotion {
		t.Fatalf("events after the block = %v, want [MOTION]", got)
	}
}

// TestEventPayloadWireFormat spot-checks the JSON the daemon puts on the
// wire for a full manual cycle.
func TestEventPayloadWireFormat(t *testing.T) {
	r := newRig()

	r.tick(t, gpio.Sample{Button: true})
	r.advance(10 * time.Millisecond)
	r.tick(t, gpio.Sample{})

	if len(r.pub.Payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(r.pub.Payloads))
	}
	var parsed struct {
		Fan struct {
			Event   string `json:"event"`
			Trigger string `json:"trigger"`
			Fan     string `json:"fan"`
		} `json:"fan"`
	}
	if err := json.Unmarshal(r.pub.Payloads[0], &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Fan.Event != "FAN_ON" || parsed.Fan.Trigger != "MANUAL" || parsed.Fan.Fan != "ON" {
		t.Errorf("payload = %+v", parsed.Fan)
	}
}
