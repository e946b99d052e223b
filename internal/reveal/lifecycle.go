// Package reveal implements the controllers that turn a time or scroll signal
// into visual state: the blue/green interval toggle, the container ship's
// scroll reveal and the monitoring tower's metric ticker.
//
// Every controller is an explicitly owned resource. Start acquires the timer
// or subscription, Stop releases it, and a callback that fires after Stop is
// dropped instead of mutating state.
package reveal

import "sync"

// State is the lifecycle position of a controller.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// lifecycle carries the Idle -> Running -> Stopped machine shared by all
// controllers. mu also serializes ticks of a single controller.
type lifecycle struct {
	mu     sync.Mutex
	state  State
	cancel func()
}

// start arms the controller. arm runs under the lock and returns the release
// func for whatever it acquired.
func (l *lifecycle) start(arm func() func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Idle {
		return false
	}
	l.cancel = arm()
	l.state = Running
	return true
}

// stop disarms the controller. The release func runs outside the lock so a
// callback blocked on mu can drain.
func (l *lifecycle) stop() bool {
	l.mu.Lock()
	if l.state != Running {
		l.mu.Unlock()
		return false
	}
	l.state = Stopped
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// finish moves a running controller to Stopped from the goroutine the release
// func waits on, so the release func is dropped rather than called.
func (l *lifecycle) finish() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Running {
		return false
	}
	l.state = Stopped
	l.cancel = nil
	return true
}

// whileRunning applies fn only if the controller is still running.
func (l *lifecycle) whileRunning(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Running {
		return false
	}
	fn()
	return true
}

func (l *lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
