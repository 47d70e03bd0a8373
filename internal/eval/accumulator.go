package eval

import (
	"math"
	"time"
)

// IntervalTimer accumulates the time spent in some state. Start and Stop are
// idempotent.
type IntervalTimer struct {
	created time.Time
	total   time.Duration
	since   time.Time
	running bool
}

// NewIntervalTimer creates a stopped timer whose run began at now.
func NewIntervalTimer(now time.Time) *IntervalTimer {
	return &IntervalTimer{created: now}
}

// Start begins an interval unless one is running.
func (t *IntervalTimer) Start(now time.Time) {
	if t.running {
		return
	}
	t.since = now
	t.running = true
}

// Stop closes the running interval, if any.
func (t *IntervalTimer) Stop(now time.Time) {
	if !t.running {
		return
	}
	t.total += interval(t.since, now)
	t.running = false
}

// Set starts or stops the timer.
func (t *IntervalTimer) Set(on bool, now time.Time) {
	if on {
		t.Start(now)
	} else {
		t.Stop(now)
	}
}

// Running reports whether an interval is open.
func (t *IntervalTimer) Running() bool { return t.running }

// Total is the accumulated time including the open interval.
func (t *IntervalTimer) Total(now time.Time) time.Duration {
	if t.running {
		return t.total + interval(t.since, now)
	}
	return t.total
}

// interval is now-since, zero when the samples arrived out of order.
func interval(since, now time.Time) time.Duration {
	if d := now.Sub(since); d > 0 {
		return d
	}
	return 0
}

// Elapsed is the time since the timer was created.
func (t *IntervalTimer) Elapsed(now time.Time) time.Duration { return now.Sub(t.created) }

// Ratio is Total over Elapsed, NaN while no time has elapsed.
func (t *IntervalTimer) Ratio(now time.Time) float64 {
	el := t.Elapsed(now)
	if el <= 0 {
		return math.NaN()
	}
	return t.Total(now).Seconds() / el.Seconds()
}

// MovingAverage is a weighted cumulative moving average.
type MovingAverage struct {
	weight float64
	avg    float64
}

// Add folds a sample in with the given weight. Non-positive weights are ignored.
func (m *MovingAverage) Add(value, weight float64) {
	if weight <= 0 {
		return
	}
	w := m.weight + weight
	m.avg = (m.avg*m.weight + weight*value) / w
	m.weight = w
}

// Weight is the accumulated weight.
func (m *MovingAverage) Weight() float64 { return m.weight }

// Average is NaN before any weight has been added.
func (m *MovingAverage) Average() float64 {
	if m.weight == 0 {
		return math.NaN()
	}
	return m.avg
}

// mean averages the non-NaN values, NaN if there are none.
func mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
