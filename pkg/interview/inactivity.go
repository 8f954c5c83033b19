package interview

import (
	"fmt"
	"time"
)

// GovernorState is the state of the inactivity countdown.
type GovernorState int

const (
	GovernorIdle GovernorState = iota
	GovernorArmed
	GovernorWarning
	GovernorFired
	GovernorDisarmed
)

var governorNames = [...]string{"idle", "armed", "warning", "fired", "disarmed"}

func (s GovernorState) String() string {
	if int(s) < len(governorNames) {
		return governorNames[s]
	}
	return fmt.Sprintf("GovernorState(%d)", int(s))
}

// Governor fires when no activity is reported for a full window. During the
// last lead seconds it reports the remaining time once per second.
//
// All methods and callbacks run on the executor passed as post; timer
// expiries are posted there too, and an expiry that was superseded by a
// later Reset or Disarm is dropped.
type Governor struct {
	clock  Clock
	post   func(func()) bool
	window time.Duration
	lead   time.Duration

	onWarning func(remaining time.Duration)
	onFire    func()

	state     GovernorState
	gen       uint64
	timers    []Timer
	deadline  time.Time
	warningAt time.Time
}

// NewGovernor creates an idle Governor. Reset arms it.
func NewGovernor(clock Clock, post func(func()) bool, window, lead time.Duration, onWarning func(time.Duration), onFire func()) *Governor {
	return &Governor{
		clock:     clock,
		post:      post,
		window:    window,
		lead:      lead,
		onWarning: onWarning,
		onFire:    onFire,
	}
}

// State returns the current state.
func (g *Governor) State() GovernorState {
	return g.state
}

// Deadline returns when the governor fires if nothing else happens, and when
// the warning starts.
func (g *Governor) Deadline() (deadline, warningAt time.Time) {
	return g.deadline, g.warningAt
}

// Reset cancels pending timers and arms a fresh window from now. It has no
// effect once fired or disarmed.
func (g *Governor) Reset() {
	if g.state == GovernorFired || g.state == GovernorDisarmed {
		return
	}
	g.cancel()
	now := g.clock.Now()
	g.deadline = now.Add(g.window)
	g.warningAt = g.deadline.Add(-g.lead)
	g.state = GovernorArmed

	if g.lead > 0 && g.lead < g.window {
		g.schedule(g.window-g.lead, g.warn)
	}
	g.schedule(g.window, g.fire)
}

// Disarm stops the governor for good.
func (g *Governor) Disarm() {
	g.cancel()
	g.state = GovernorDisarmed
}

func (g *Governor) cancel() {
	g.gen++
	for _, t := range g.timers {
		t.Stop()
	}
	g.timers = g.timers[:0]
}

func (g *Governor) schedule(d time.Duration, f func()) {
	gen := g.gen
	t := g.clock.AfterFunc(d, func() {
		g.post(func() {
			if gen != g.gen || g.state == GovernorFired || g.state == GovernorDisarmed {
				return
			}
			f()
		})
	})
	g.timers = append(g.timers, t)
}

func (g *Governor) warn() {
	g.state = GovernorWarning
	g.tick(g.lead)
}

func (g *Governor) tick(remaining time.Duration) {
	if g.onWarning != nil {
		g.onWarning(remaining)
	}
	if next := remaining - time.Second; next > 0 {
		g.schedule(time.Second, func() { g.tick(next) })
	}
}

func (g *Governor) fire() {
	g.cancel()
	g.state = GovernorFired
	if g.onFire != nil {
		g.onFire()
	}
}
