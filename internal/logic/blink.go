package logic

// Blinker generates the status LED's asymmetric blink pattern without
// blocking: a fixed short on-pulse, then off for the configured period.
// At a 5 s period this reads as a heartbeat flash; at 100 ms it reads as
// rapid "waiting" blinking.
type Blinker struct {
	remaining uint32
	last      uint32
	on        bool
}

// Tick advances the pattern and returns the desired LED level. The
// off-phase lasts period microseconds; the on-phase is always
// BlinkPulseTime regardless of period.
func (b *Blinker) Tick(period, now uint32) bool {
	b.remaining = Decrement(b.remaining, b.last, now)
	b.last = now
	if b.remaining == 0 {
		b.on = !b.on
		if b.on {
			b.remaining = BlinkPulseTime
		} else {
			b.remaining = period
		}
	}
	return b.on
}
