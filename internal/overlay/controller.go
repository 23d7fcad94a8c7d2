// Package overlay manages modal panels: open/close state, deferred initial focus,
// reset-on-close and Escape routing across every overlay a shopper has mounted.
package overlay

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFocusDelay lets the open transition start before focus moves into the panel.
const DefaultFocusDelay = 100 * time.Millisecond

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler is backed by time.AfterFunc.
var SystemScheduler Scheduler = systemScheduler{}

// openSeq orders overlays by the moment they were opened.
var openSeq atomic.Uint64

// Option configures a Controller.
type Option func(*Controller)

// WithFocus sets the callback that transfers focus once the open delay elapses.
func WithFocus(fn func()) Option {
	return func(c *Controller) { c.focus = fn }
}

// WithFocusDelay overrides DefaultFocusDelay.
func WithFocusDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithScheduler injects the timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithReset registers a hook that runs every time the overlay closes.
func WithReset(fn func()) Option {
	return func(c *Controller) {
		if fn != nil {
			c.resets = append(c.resets, fn)
		}
	}
}

// Controller is the open/close lifecycle of one overlay.
type Controller struct {
	name      string
	delay     time.Duration
	scheduler Scheduler
	focus     func()
	resets    []func()

	mu      sync.Mutex
	open    bool
	gen     uint64
	seq     uint64
	pending Timer
}

// NewController returns a closed overlay.
func NewController(name string, opts ...Option) *Controller {
	c := &Controller{
		name:      name,
		delay:     DefaultFocusDelay,
		scheduler: SystemScheduler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name identifies the overlay.
func (c *Controller) Name() string { return c.name }

// IsOpen reports the current state.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Open shows the overlay and schedules the focus transfer. Opening an open overlay is a no-op.
func (c *Controller) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		return false
	}
	c.open = true
	c.gen++
	c.seq = openSeq.Add(1)
	if c.focus != nil {
		gen := c.gen
		c.pending = c.scheduler.AfterFunc(c.delay, func() { c.fireFocus(gen) })
	}
	return true
}

func (c *Controller) fireFocus(gen uint64) {
	c.mu.Lock()
	if !c.open || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	focus := c.focus
	c.mu.Unlock()
	focus()
}

// Close hides the overlay, cancels a pending focus transfer and runs the reset hooks.
// Closing a closed overlay is a no-op and reports false.
func (c *Controller) Close() bool {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return false
	}
	c.open = false
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	resets := c.resets
	c.mu.Unlock()

	for _, reset := range resets {
		reset()
	}
	return true
}

// Toggle flips the state and reports whether the overlay is now open.
func (c *Controller) Toggle() bool {
	if c.IsOpen() {
		c.Close()
		return false
	}
	c.Open()
	return true
}

// FocusPending reports whether a focus transfer is still scheduled.
func (c *Controller) FocusPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Controller) openedSeq() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq, c.open
}
