package pacer

import "time"

// Clock supplies timestamps. time.Now carries a monotonic reading, so
// differences between two Now values are immune to wall-clock steps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// timeSource is the single elapsed-time authority of a session. Both the
// phase and session projections read from it, so pausing it suspends both.
type timeSource struct {
	running  bool
	paused   bool
	start    time.Time
	pausedAt time.Time
	pauseGap time.Duration
}

func (t *timeSource) begin(now time.Time) {
	*t = timeSource{running: true, start: now}
}

func (t *timeSource) clear() {
	*t = timeSource{}
}

func (t *timeSource) pause(now time.Time) bool {
	if !t.running || t.paused {
		return false
	}
	t.paused = true
	t.pausedAt = now
	return true
}

func (t *timeSource) resume(now time.Time) bool {
	if !t.running || !t.paused {
		return false
	}
	t.pauseGap += now.Sub(t.pausedAt)
	t.paused = false
	return true
}

func (t timeSource) elapsed(now time.Time) time.Duration {
	if !t.running {
		return 0
	}
	end := now
	if t.paused {
		end = t.pausedAt
	}
	d := end.Sub(t.start) - t.pauseGap
	if d < 0 {
		return 0
	}
	return d
}

// phaseClock projects elapsed time onto whole ticks. Every tick that elapsed
// time covers is applied exactly once, so late callbacks catch up instead of
// stretching the phase.
type phaseClock struct {
	applied int
}

func (c *phaseClock) due(elapsed time.Duration) int {
	n := int(elapsed/TickInterval) - c.applied
	if n < 0 {
		return 0
	}
	return n
}

// sync applies the due ticks to m and reports whether the phase changed.
func (c *phaseClock) sync(elapsed time.Duration, m *phaseMachine) bool {
	changed := false
	for n := c.due(elapsed); n > 0; n-- {
		c.applied++
		if m.tick() {
			changed = true
		}
	}
	return changed
}

// sessionClock projects elapsed time onto overall session progress.
type sessionClock struct {
	total    time.Duration
	progress float64
}

func (c *sessionClock) sync(elapsed time.Duration) float64 {
	if c.total <= 0 {
		return c.progress
	}
	p := float64(elapsed) / float64(c.total) * 100
	if p > 100 {
		p = 100
	}
	if p > c.progress {
		c.progress = p
	}
	return c.progress
}

func (c sessionClock) done() bool {
	return c.progress >= 100
}
