package logic

// Decrement returns what is left of a countdown after the time between
// last and now has passed, clamped at 0.
//
// The microsecond counter wraps at 2^32 (about 71 minutes). Unsigned
// subtraction gives the correct elapsed time across a wrap as long as the
// real elapsed time is under one wrap period, which the tick loop
// guarantees by a wide margin.
func Decrement(remaining, last, now uint32) uint32 {
	elapsed := now - last
	if elapsed < remaining {
		return remaining - elapsed
	}
	return 0
}
