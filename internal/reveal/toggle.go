package reveal

import "time"

// DefaultTogglePeriod is how long each side of the landing stays emphasized.
const DefaultTogglePeriod = 5 * time.Second

// Side is the two-valued state of the interval toggle.
type Side int

const (
	Blue Side = iota
	Green
)

func (s Side) String() string {
	if s == Green {
		return "green"
	}
	return "blue"
}

func (s Side) Flip() Side {
	if s == Blue {
		return Green
	}
	return Blue
}

// MarshalText lets a Side travel as "blue" or "green".
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Toggle flips between Blue and Green once per period while running.
type Toggle struct {
	lifecycle

	sched    Scheduler
	period   time.Duration
	side     Side
	onChange []func(Side)
}

// NewToggle returns an idle toggle on Blue. A non-positive period falls back
// to DefaultTogglePeriod.
func NewToggle(s Scheduler, period time.Duration) *Toggle {
	if period <= 0 {
		period = DefaultTogglePeriod
	}
	return &Toggle{sched: s, period: period, side: Blue}
}

// OnChange registers fn to receive the side after every flip. fn runs while
// the toggle is locked and must not call back into it. Register before Start.
func (t *Toggle) OnChange(fn func(Side)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = append(t.onChange, fn)
}

func (t *Toggle) Start() bool {
	return t.start(func() func() {
		return t.sched.Every(t.period, t.tick)
	})
}

func (t *Toggle) Stop() bool {
	return t.stop()
}

func (t *Toggle) Side() Side {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.side
}

func (t *Toggle) Period() time.Duration {
	return t.period
}

func (t *Toggle) tick() {
	t.whileRunning(func() {
		t.side = t.side.Flip()
		for _, fn := range t.onChange {
			fn(t.side)
		}
	})
}
