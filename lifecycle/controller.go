// Package lifecycle tracks the outstanding requests of one view.
//
// Each load kind ("feed", "comments:<id>", "search") has at most one current
// run. Starting a new run cancels the previous one, and responses of
// superseded or cancelled runs are recognised as stale so they can be
// dropped. Closing the controller cancels every run and every mutation
// scoped to the view.
package lifecycle

import (
	"context"
	"sync"
)

// Kind names a category of request. Runs of the same kind supersede each other.
type Kind string

// Ticket identifies one run of a kind.
type Ticket struct {
	Kind Kind
	Seq  uint64
	Ctx  context.Context
}

// Controller is safe for concurrent use: commands read ticket contexts on
// their own goroutines while the update loop begins and finishes runs.
type Controller struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	seq      map[Kind]uint64
	running  map[Kind]context.CancelFunc
	debounce map[Kind]uint64
	closed   bool
}

// New creates a controller whose lifetime is bounded by parent.
func New(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		ctx:      ctx,
		cancel:   cancel,
		seq:      make(map[Kind]uint64),
		running:  make(map[Kind]context.CancelFunc),
		debounce: make(map[Kind]uint64),
	}
}

// Context is the view-scoped context used by mutations. It is cancelled by Close.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Begin starts a run of kind, cancelling the outstanding run of the same kind.
func (c *Controller) Begin(kind Kind) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.running[kind]; ok {
		prev()
	}
	c.seq[kind]++
	ctx, cancel := context.WithCancel(c.ctx)
	if c.closed {
		cancel()
	} else {
		c.running[kind] = cancel
	}
	return Ticket{Kind: kind, Seq: c.seq[kind], Ctx: ctx}
}

// Current reports whether t is still the latest run of its kind and its
// context has not been cancelled.
func (c *Controller) Current(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked(t)
}

func (c *Controller) currentLocked(t Ticket) bool {
	if c.closed || c.seq[t.Kind] != t.Seq {
		return false
	}
	return t.Ctx == nil || t.Ctx.Err() == nil
}

// Finish ends the run t and reports whether its response may be applied.
// Stale or cancelled runs return false and leave the current run untouched.
func (c *Controller) Finish(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.currentLocked(t)
	if c.seq[t.Kind] == t.Seq {
		if cancel, running := c.running[t.Kind]; running {
			cancel()
			delete(c.running, t.Kind)
		}
	}
	return ok
}

// Cancel aborts the outstanding run of kind, if any. Its response will be stale.
func (c *Controller) Cancel(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.running[kind]; ok {
		cancel()
		delete(c.running, kind)
	}
	c.seq[kind]++
	c.debounce[kind]++
}

// Outstanding returns the number of runs that have begun but not finished.
func (c *Controller) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running)
}

// Close cancels everything. Later runs start already cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for kind, cancel := range c.running {
		cancel()
		delete(c.running, kind)
	}
	c.cancel()
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
