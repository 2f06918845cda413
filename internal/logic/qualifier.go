package logic

// qualifyMask is the full detection window: motion is qualified only when
// the last 8 pushes were all instantaneous detections.
const qualifyMask uint8 = 0xFF

// Qualifier turns raw analog sensor samples into a debounced motion signal.
//
// It keeps a rolling average of low-pass-filtered quiet samples as a noise
// floor, flags an instantaneous detection when a filtered sample spikes to
// more than ThresholdMult times that floor, and requires a unanimous run
// of 8 detections (one per DetectionInterDelay) before reporting motion.
type Qualifier struct {
	// history holds filtered quiet samples; sum/FilterLength is the
	// noise floor. Samples that flag as detections are NOT stored, so a
	// sustained spike cannot drag the floor up under itself.
	history [FilterLength]float64
	idx     int

	// bits is the detection shift register, newest push in bit 0.
	bits uint8

	// interRemain spaces pushes into the shift register.
	interRemain uint32
	last        uint32
}

// Sample processes one raw reading and reports whether motion is currently
// qualified. Between inter-sample deadlines it only re-reports the current
// qualification; the history and shift register advance once per
// DetectionInterDelay.
func (q *Qualifier) Sample(raw uint8, now uint32) bool {
	q.interRemain = Decrement(q.interRemain, q.last, now)
	q.last = now
	if q.interRemain > 0 {
		return q.bits == qualifyMask
	}
	q.interRemain = DetectionInterDelay

	avg := q.average()
	filtered := avg*IIRCoef + float64(raw)*(1-IIRCoef)

	floor := avg
	if floor < MinThreshold {
		floor = MinThreshold
	}
	detected := filtered > ThresholdMult*floor

	if !detected {
		q.history[q.idx] = filtered
		q.idx = (q.idx + 1) % FilterLength
	}

	q.bits <<= 1
	if detected {
		q.bits |= 1
	}
	return q.bits == qualifyMask
}

// Qualified reports the current debounced motion signal without advancing
// any state.
func (q *Qualifier) Qualified() bool {
	return q.bits == qualifyMask
}

// Reset clears the detection shift register. Called when the motion sensor
// is blocked after a fan shutoff, so detections from before the block
// cannot combine with fresh ones into a spurious unanimous window.
func (q *Qualifier) Reset() {
	q.bits = 0
}

func (q *Qualifier) average() float64 {
	var sum float64
	for _, v := range q.history {
		sum += v
	}
	return sum / FilterLength
}
