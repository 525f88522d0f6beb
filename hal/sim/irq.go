// Package sim models the echo UART peripheral and its interrupt controller line
// so the interrupt handler can run on a host without hardware.
package sim

import "sync"

// DefaultEntryLimit bounds back-to-back handler entries within one dispatch.
// A level source still asserted after that many entries is an interrupt storm.
const DefaultEntryLimit = 64

// Source reports whether a level-triggered interrupt condition is asserted.
type Source func() bool

// Controller models one interrupt controller line on a single core.
//
// Handler entries never overlap. While any source stays asserted after the
// handler returns, the handler is entered again (tail chaining), up to the
// entry limit.
type Controller struct {
	mu       sync.Mutex
	handler  func()
	sources  []Source
	enabled  bool
	active   bool
	requests uint64
	limit    int

	entries uint64
	storms  uint64

	onEnable func()
}

// NewController returns a masked controller line.
func NewController() *Controller {
	return &Controller{limit: DefaultEntryLimit}
}

// SetEntryLimit changes the storm threshold. n <= 0 restores the default.
func (c *Controller) SetEntryLimit(n int) {
	if n <= 0 {
		n = DefaultEntryLimit
	}
	c.mu.Lock()
	c.limit = n
	c.mu.Unlock()
}

// OnEnable registers a hook called when the line is unmasked, before any
// pending interrupt is delivered. Tests use it to inspect boot ordering.
func (c *Controller) OnEnable(fn func()) {
	c.mu.Lock()
	c.onEnable = fn
	c.mu.Unlock()
}

// Attach adds a level source that can assert this line.
func (c *Controller) Attach(src Source) {
	if src == nil {
		return
	}
	c.mu.Lock()
	c.sources = append(c.sources, src)
	c.mu.Unlock()
}

func (c *Controller) SetHandler(fn func()) {
	c.mu.Lock()
	c.handler = fn
	c.mu.Unlock()
}

// Enable unmasks the line and delivers any interrupt that is already pending.
func (c *Controller) Enable() {
	c.mu.Lock()
	c.enabled = true
	hook := c.onEnable
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	c.Pend()
}

func (c *Controller) Disable() {
	c.mu.Lock()
	c.enabled = false
	c.mu.Unlock()
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Entries returns the number of handler entries so far.
func (c *Controller) Entries() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries
}

// Storms returns how many dispatches hit the entry limit.
func (c *Controller) Storms() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storms
}

// Pend is called by peripherals after a state change. If the line is unmasked
// and not already being serviced, the handler runs on the caller's goroutine.
func (c *Controller) Pend() {
	c.mu.Lock()
	c.requests++
	if c.active || !c.enabled || c.handler == nil {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.mu.Unlock()
	c.dispatch()
}

func (c *Controller) dispatch() {
	for {
		c.mu.Lock()
		seen := c.requests
		h := c.handler
		limit := c.limit
		c.mu.Unlock()

		ran := 0
		for c.Enabled() && c.asserted() {
			if ran >= limit {
				c.mu.Lock()
				c.storms++
				c.active = false
				c.mu.Unlock()
				return
			}
			h()
			ran++
			c.mu.Lock()
			c.entries++
			c.mu.Unlock()
		}

		c.mu.Lock()
		if c.requests == seen || !c.enabled {
			c.active = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

func (c *Controller) asserted() bool {
	c.mu.Lock()
	sources := c.sources
	c.mu.Unlock()
	for _, src := range sources {
		if src() {
			return true
		}
	}
	return false
}
