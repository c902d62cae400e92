package capture

// StallDetector decides when scrolling has stopped loading content.
//
// The first observed extent is the baseline. Each later read equal to the
// last recorded extent counts as a stall; a changed read resets the count and
// becomes the new reference.
type StallDetector struct {
	threshold int
	stalls    int
	last      int
	started   bool
}

// NewStallDetector returns a detector that terminates after threshold
// consecutive unchanged reads. A threshold below 1 is treated as 1.
func NewStallDetector(threshold int) *StallDetector {
	if threshold < 1 {
		threshold = 1
	}
	return &StallDetector{threshold: threshold}
}

// Observe records extent and reports whether scrolling should stop.
func (d *StallDetector) Observe(extent int) bool {
	if !d.started {
		d.started = true
		d.last = extent
		return false
	}
	if extent == d.last {
		d.stalls++
		return d.stalls >= d.threshold
	}
	d.stalls = 0
	d.last = extent
	return false
}

// Stalls returns the current count of consecutive unchanged reads.
func (d *StallDetector) Stalls() int {
	return d.stalls
}
