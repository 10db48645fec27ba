// Package timer implements the attempt countdown.
package timer

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/quiz"
)

// TickMsg is delivered once per second while the timer runs. Gen ties the
// tick to the Start that scheduled it so ticks from a stopped run are ignored.
type TickMsg struct {
	Gen int
}

// TickResult reports what a tick did.
type TickResult struct {
	// Applied is false when the tick was stale or the timer inactive.
	Applied bool

	// Expired is true on the single tick that reached zero.
	Expired bool
}

// Timer counts down an attempt's time limit.
type Timer struct {
	enabled   bool
	limit     int
	warning   int
	remaining int
	active    bool
	expired   bool
	gen       int
}

// New returns a timer for q. Quizzes without a timer get a disabled one.
func New(q quiz.Quiz) *Timer {
	return &Timer{
		enabled:   q.HasTimer && q.TimeLimitSeconds > 0,
		limit:     q.TimeLimitSeconds,
		warning:   q.WarningTimeSeconds,
		remaining: q.TimeLimitSeconds,
	}
}

// Enabled reports whether the quiz is timed.
func (t *Timer) Enabled() bool { return t.enabled }

// Active reports whether the countdown is running.
func (t *Timer) Active() bool { return t.active }

// Expired reports whether the countdown reached zero.
func (t *Timer) Expired() bool { return t.expired }

// Remaining returns the seconds left.
func (t *Timer) Remaining() int { return t.remaining }

// Gen returns the current run's generation; ticks carrying another are stale.
func (t *Timer) Gen() int { return t.gen }

// Warning reports whether the countdown is inside the warning window.
func (t *Timer) Warning() bool {
	return t.active && t.remaining <= t.warning
}

// Start begins the countdown from the full limit and returns the first tick.
func (t *Timer) Start() tea.Cmd {
	if !t.enabled {
		return nil
	}
	t.gen++
	t.remaining = t.limit
	t.active = true
	t.expired = false
	return t.Cmd()
}

// Resume begins the countdown from remaining seconds, for a resumed attempt.
func (t *Timer) Resume(remaining int) tea.Cmd {
	if !t.enabled {
		return nil
	}
	t.gen++
	t.remaining = max(remaining, 0)
	t.active = true
	t.expired = false
	if t.remaining == 0 {
		t.active = false
		t.expired = true
		return nil
	}
	return t.Cmd()
}

// Stop tears the countdown down. Ticks already scheduled become stale.
func (t *Timer) Stop() {
	t.active = false
	t.gen++
}

// Tick applies one second. It fires Expired exactly once, on the tick that
// reaches zero.
func (t *Timer) Tick(msg TickMsg) TickResult {
	if msg.Gen != t.gen || !t.active {
		return TickResult{}
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.active = false
		t.expired = true
		return TickResult{Applied: true, Expired: true}
	}
	return TickResult{Applied: true}
}

// Cmd schedules the next tick for the current run.
func (t *Timer) Cmd() tea.Cmd {
	gen := t.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{Gen: gen}
	})
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
