package logic

// Controller is the control state machine sequencing detection, delay,
// activation, and reset of the exhaust fan. It owns every countdown in the
// system and the desired actuator levels; the daemon shell applies the
// returned Output to hardware.
//
// The next state computed by a tick is latched and committed at the top of
// the following tick, so guards never chain multiple hops in one tick.
// The single exception is Detected with the fan already running, which
// runs the Activate handler in the same tick to refresh the runtime.
type Controller struct {
	state State
	next  State

	last uint32 // countdown reference timestamp

	timeRemaining uint32 // delay until activation, armed by Detected
	fanTimeRemain uint32 // remaining fan runtime
	stopDetection uint32 // post-detection cool-down: blocks Idle->Detected
	blockMotionIn uint32 // post-shutoff window: motion sensor ignored

	fanRunning  bool
	manualReset bool    // why the pending Reset was scheduled
	trigger     Trigger // why the pending Activate was scheduled

	relay bool
	led   bool

	qual   Qualifier
	blink  Blinker
	counts EventCounts
}

// NewController returns a controller in the Idle state with all countdowns
// clear and the fan off.
func NewController() *Controller {
	return &Controller{state: StateIdle, next: StateIdle}
}

// Tick runs one control cycle: commit the latched state, advance all
// countdowns, qualify motion, update the blink pattern, then evaluate the
// current state's transitions and side effects.
func (c *Controller) Tick(in Input) Output {
	c.state = c.next

	// Advance countdowns first so a timer reaching 0 is visible to the
	// guards in this same tick. Delay expiry is edge-detected here: only
	// a countdown that was armed may fire the activation.
	armed := c.timeRemaining > 0
	c.timeRemaining = Decrement(c.timeRemaining, c.last, in.Micros)
	c.fanTimeRemain = Decrement(c.fanTimeRemain, c.last, in.Micros)
	c.stopDetection = Decrement(c.stopDetection, c.last, in.Micros)
	c.blockMotionIn = Decrement(c.blockMotionIn, c.last, in.Micros)
	delayExpired := armed && c.timeRemaining == 0
	c.last = in.Micros

	// The sensor is ignored outright inside the post-shutoff window.
	motion := false
	if c.blockMotionIn == 0 {
		motion = c.qual.Sample(in.Raw, in.Micros)
	}

	// While the fan runs the LED is held solid by Activate/Reset; the
	// blinker only drives it when the fan is off.
	if !c.fanRunning {
		if c.timeRemaining > 0 {
			c.led = c.blink.Tick(WaitingBlinkTime, in.Micros)
		} else {
			c.led = c.blink.Tick(HeartbeatBlinkTime, in.Micros)
		}
	}

	var out Output
	switch c.state {
	case StateIdle:
		c.handleIdle(motion, in.Button, delayExpired)
	case StateDetected:
		c.handleDetected(in, &out)
	case StateActivate:
		c.handleActivate(in, &out)
	case StateReset:
		c.handleReset(in, &out)
	}

	out.Relay = c.relay
	out.LED = c.led
	return out
}

func (c *Controller) handleIdle(motion, button, delayExpired bool) {
	switch {
	case motion && c.stopDetection == 0:
		c.next = StateDetected
	case c.fanRunning && button:
		c.manualReset = true
		c.next = StateReset
	case c.fanRunning && c.fanTimeRemain == 0:
		c.manualReset = false
		c.next = StateReset
	case !c.fanRunning && button:
		c.trigger = TriggerManual
		c.next = StateActivate
	case delayExpired:
		c.trigger = TriggerTimer
		c.next = StateActivate
	}
}

func (c *Controller) handleDetected(in Input, out *Output) {
	// Cool-down on every entry so the settling sensor cannot re-trigger.
	c.stopDetection = BlockDetectionDelay
	c.counts.Motion++
	out.Events = append(out.Events, Event{
		Timestamp:  in.Time,
		Type:       EventMotion,
		FanRunning: c.fanRunning,
	})

	if c.fanRunning {
		// Already running: refresh the runtime now rather than re-arming
		// the activation delay.
		c.trigger = TriggerMotion
		c.handleActivate(in, out)
		return
	}

	c.timeRemaining = DelayTime
	c.next = StateIdle
}

func (c *Controller) handleActivate(in Input, out *Output) {
	manual := c.trigger == TriggerManual

	c.fanRunning = true
	c.fanTimeRemain = RunTime
	// Cancel any pending delayed activation; the fan is on now.
	c.timeRemaining = 0
	c.relay = true
	c.led = true
	c.next = StateIdle

	c.counts.FanOn++
	if manual {
		c.counts.ManualOn++
	}
	out.Events = append(out.Events, Event{
		Timestamp:  in.Time,
		Type:       EventFanOn,
		Trigger:    c.trigger,
		FanRunning: true,
	})

	// Pause so a bouncing pushbutton is not re-read as a toggle-off.
	out.Sleep = ManualOnDebounce
}

func (c *Controller) handleReset(in Input, out *Output) {
	trigger := TriggerRuntime
	if c.manualReset {
		trigger = TriggerManual
	}

	c.fanRunning = false
	c.fanTimeRemain = 0
	c.timeRemaining = 0
	c.relay = false
	c.led = false
	c.next = StateIdle

	// Ignore the sensor while residual fumes and airflow die down, and
	// drop any detection bits recorded before the shutoff.
	c.blockMotionIn = MotionBlockAfterReset
	c.qual.Reset()

	c.counts.FanOff++
	if c.manualReset {
		c.counts.ManualOff++
	}
	out.Events = append(out.Events, Event{
		Timestamp: in.Time,
		Type:      EventFanOff,
		Trigger:   trigger,
	})

	if c.manualReset {
		out.Sleep = ManualOffDebounce
	}
	c.manualReset = false
}

// State returns the state evaluated by the most recent tick.
func (c *Controller) State() State {
	return c.state
}

// FanRunning reports whether the fan is currently on.
func (c *Controller) FanRunning() bool {
	return c.fanRunning
}

// Motion reports the current debounced motion signal.
func (c *Controller) Motion() bool {
	return c.qual.Qualified()
}

// DelayRemaining returns the microseconds left on the activation delay.
func (c *Controller) DelayRemaining() uint32 {
	return c.timeRemaining
}

// RunRemaining returns the microseconds left of fan runtime.
func (c *Controller) RunRemaining() uint32 {
	return c.fanTimeRemain
}

// MotionBlockRemaining returns the microseconds left of the post-shutoff
// sensor block.
func (c *Controller) MotionBlockRemaining() uint32 {
	return c.blockMotionIn
}

// Counts returns a snapshot of the event counters.
func (c *Controller) Counts() EventCounts {
	return c.counts
}
