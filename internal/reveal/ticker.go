package reveal

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/Zachkp/devops-journey/internal/content"
)

const (
	DefaultTickerPeriod = 3 * time.Second
	// DefaultSpread is the width of the symmetric delta range, so values move
	// by at most ±5 per tick.
	DefaultSpread = 10.0
	// DefaultUptimeStep bounds the upward nudge of the monotonic gauge.
	DefaultUptimeStep = 0.1

	MinValue = 0.0
	MaxValue = 100.0
)

// Rand yields uniform values in [0,1).
type Rand func() float64

// Jitter describes how far gauges move on each tick.
type Jitter struct {
	Spread     float64
	UptimeStep float64
}

// DefaultJitter is the movement of the original dashboard.
var DefaultJitter = Jitter{Spread: DefaultSpread, UptimeStep: DefaultUptimeStep}

// Delta draws the perturbation for m from one uniform sample r.
func (j Jitter) Delta(m content.MetricData, r float64) float64 {
	if m.Monotonic {
		return r * j.UptimeStep
	}
	return (r - 0.5) * j.Spread
}

// Nudge applies delta to m's value. The monotonic gauge only ever moves up
// and is capped at MaxValue; every other gauge is clamped into
// [MinValue, MaxValue]. Nothing but Value changes.
func Nudge(m content.MetricData, delta float64) content.MetricData {
	if m.Monotonic {
		if delta > 0 && m.Value < MaxValue {
			m.Value = math.Min(MaxValue, m.Value+delta)
		}
		return m
	}
	m.Value = math.Max(MinValue, math.Min(MaxValue, m.Value+delta))
	return m
}

// Perturb returns a new list with every gauge nudged once.
func Perturb(metrics []content.MetricData, j Jitter, rnd Rand) []content.MetricData {
	next := make([]content.MetricData, len(metrics))
	for i, m := range metrics {
		next[i] = Nudge(m, j.Delta(m, rnd()))
	}
	return next
}

// MetricTicker replaces its gauge list with a perturbed copy once per period.
type MetricTicker struct {
	lifecycle

	sched   Scheduler
	period  time.Duration
	jitter  Jitter
	rnd     Rand
	metrics []content.MetricData
	onTick  []func([]content.MetricData)
}

type TickerOption func(*MetricTicker)

func WithTickerPeriod(d time.Duration) TickerOption {
	return func(t *MetricTicker) {
		if d > 0 {
			t.period = d
		}
	}
}

func WithJitter(j Jitter) TickerOption {
	return func(t *MetricTicker) { t.jitter = j }
}

// WithRand replaces the random source, mostly so tests can force deltas.
func WithRand(rnd Rand) TickerOption {
	return func(t *MetricTicker) {
		if rnd != nil {
			t.rnd = rnd
		}
	}
}

// NewMetricTicker returns an idle ticker over a private copy of metrics.
func NewMetricTicker(s Scheduler, metrics []content.MetricData, opts ...TickerOption) *MetricTicker {
	t := &MetricTicker{
		sched:   s,
		period:  DefaultTickerPeriod,
		jitter:  DefaultJitter,
		rnd:     rand.Float64,
		metrics: append([]content.MetricData(nil), metrics...),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnTick registers fn to receive the new list after every tick. The slice is
// a copy owned by fn. fn runs while the ticker is locked and must not call
// back into it. Register before Start.
func (t *MetricTicker) OnTick(fn func([]content.MetricData)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = append(t.onTick, fn)
}

func (t *MetricTicker) Start() bool {
	return t.start(func() func() {
		return t.sched.Every(t.period, t.tick)
	})
}

func (t *MetricTicker) Stop() bool {
	return t.stop()
}

// Snapshot returns a copy of the current gauges.
func (t *MetricTicker) Snapshot() []content.MetricData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]content.MetricData(nil), t.metrics...)
}

func (t *MetricTicker) Period() time.Duration {
	return t.period
}

func (t *MetricTicker) tick() {
	t.whileRunning(func() {
		t.metrics = Perturb(t.metrics, t.jitter, t.rnd)
		for _, fn := range t.onTick {
			fn(append([]content.MetricData(nil), t.metrics...))
		}
	})
}
