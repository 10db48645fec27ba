// Package navigation enforces which question a learner may move to under a
// quiz's navigation mode.
package navigation

import (
	"errors"
	"fmt"

	"github.com/abhisek/lingoquiz/internal/quiz"
)

// ErrMoveNotAllowed is returned when a move violates the navigation policy.
var ErrMoveNotAllowed = errors.New("move not allowed")

// ProceedFunc reports whether the current question holds a complete answer.
type ProceedFunc func() bool

type policy struct {
	canNavigateTo func(target, current int) bool
	canGoBack     bool

	// forwardNeedsAnswer gates Next on the current question being answerable.
	forwardNeedsAnswer bool
}

var policies = map[quiz.NavigationMode]policy{
	quiz.NavSequential: {
		canNavigateTo:      func(target, current int) bool { return target == current },
		canGoBack:          false,
		forwardNeedsAnswer: true,
	},
	quiz.NavBackOnly: {
		canNavigateTo: func(target, current int) bool { return target <= current },
		canGoBack:     true,
	},
	quiz.NavFree: {
		canNavigateTo: func(int, int) bool { return true },
		canGoBack:     true,
	},
}

// denyJumps applies to unrecognised modes: direct jumps are refused while
// Previous and Next behave as in free mode.
var denyJumps = policy{
	canNavigateTo: func(int, int) bool { return false },
	canGoBack:     true,
}

// Controller tracks the current question index for one attempt.
type Controller struct {
	mode    quiz.NavigationMode
	policy  policy
	count   int
	current int
}

// New returns a controller positioned on the first of count questions.
func New(mode quiz.NavigationMode, count int) *Controller {
	p, ok := policies[mode]
	if !ok {
		p = denyJumps
	}
	return &Controller{mode: mode, policy: p, count: count}
}

func (c *Controller) Mode() quiz.NavigationMode { return c.mode }
func (c *Controller) Current() int { return c.current }
func (c *Controller) Count() int { return c.count }

// IsLast reports whether the current question is the final one.
func (c *Controller) IsLast() bool {
	return c.count == 0 || c.current == c.count-1
}

// CanNavigateTo reports whether a direct jump to index i is permitted.
func (c *Controller) CanNavigateTo(i int) bool {
	if i < 0 || i >= c.count {
		return false
	}
	return c.policy.canNavigateTo(i, c.current)
}

// CanGoBack reports whether Previous would move.
func (c *Controller) CanGoBack() bool {
	return c.policy.canGoBack && c.current > 0
}

// CanGoForward reports whether Next would move.
func (c *Controller) CanGoForward(proceed ProceedFunc) bool {
	if c.IsLast() {
		return false
	}
	if c.policy.forwardNeedsAnswer {
		return proceed != nil && proceed()
	}
	return true
}

// CanFinish reports whether the attempt may be finalized from here. A forced
// finish (timer expiry) skips the answer check.
func (c *Controller) CanFinish(proceed ProceedFunc, forced bool) bool {
	if !c.IsLast() {
		return false
	}
	return forced || (proceed != nil && proceed())
}

// Next advances one question.
func (c *Controller) Next(proceed ProceedFunc) error {
	if !c.CanGoForward(proceed) {
		return fmt.Errorf("next from %d: %w", c.current, ErrMoveNotAllowed)
	}
	c.current++
	return nil
}

// Previous moves back one question.
func (c *Controller) Previous() error {
	if !c.CanGoBack() {
		return fmt.Errorf("previous from %d: %w", c.current, ErrMoveNotAllowed)
	}
	c.current--
	return nil
}

// JumpTo moves directly to question i.
func (c *Controller) JumpTo(i int) error {
	if !c.CanNavigateTo(i) {
		return fmt.Errorf("jump %d -> %d: %w", c.current, i, ErrMoveNotAllowed)
	}
	c.current = i
	return nil
}
