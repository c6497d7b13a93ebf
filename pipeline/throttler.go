package pipeline

import "time"

const (
	// timeCheckEvery bounds how often the throttler consults the clock;
	// reading the time on every item would dominate small work loops.
	timeCheckEvery = 100

	// emitInterval is the wall-time spacing between progress events.
	emitInterval = 15 * time.Millisecond
)

// throttler rate-limits progress events for large stages: an event passes
// after roughly 1% of the stage's items, or after 15ms of wall time, whichever
// comes first. The clock is only checked every 100 items.
type throttler struct {
	onePercent int
	lastCount  int
	lastTime   time.Time
	now        func() time.Time
}

func newThrottler(total int) *throttler {
	onePercent := (total + 99) / 100
	if onePercent < 1 {
		onePercent = 1
	}

	return &throttler{
		onePercent: onePercent,
		now:        time.Now,
	}
}

// ok reports whether a progress event should be emitted for item number it.
func (t *throttler) ok(it int) bool {
	var now time.Time
	emit := it-t.lastCount > t.onePercent

	if it-t.lastCount > timeCheckEvery {
		now = t.now()
		emit = emit || now.Sub(t.lastTime) > emitInterval
	}

	if emit {
		if now.IsZero() {
			now = t.now()
		}
		t.lastTime = now
		t.lastCount = it
	}

	return emit
}
