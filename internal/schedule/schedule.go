// Package schedule provides cancellable delayed callbacks behind a clock
// interface, with a wall-clock implementation and a virtual one for tests.
package schedule

import (
	"sync"
	"time"
)

// Task is a pending delayed callback.
type Task interface {
	// Cancel stops the callback from running. It reports whether the call
	// prevented the callback; false means it already fired or was cancelled.
	Cancel() bool
}

// Clock tells the time and runs callbacks after a delay.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
}

// Real returns a Clock backed by the wall clock. Callbacks run on their own goroutine.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Task {
	return realTask{t: time.AfterFunc(d, f)}
}

type realTask struct {
	t *time.Timer
}

func (r realTask) Cancel() bool { return r.t.Stop() }

// Fake is a virtual clock. Time only moves when Advance is called, and due
// callbacks run synchronously on the goroutine calling Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTask
}

type fakeTask struct {
	clock *Fake
	at    time.Time
	seq   int
	f     func()
	done  bool
}

// NewFake returns a virtual clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the virtual time.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the virtual time reaches Now()+d.
func (c *Fake) AfterFunc(d time.Duration, f func()) Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTask{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d, running every callback that comes due
// in deadline order. Callbacks scheduled by a callback also run if they fall
// inside the window.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.popDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of callbacks that have not fired or been cancelled.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// popDue removes and returns the earliest task due at or before target.
// Caller holds c.mu.
func (c *Fake) popDue(target time.Time) *fakeTask {
	idx := -1
	for i, t := range c.pending {
		if t.at.After(target) {
			continue
		}
		if idx < 0 || t.at.Before(c.pending[idx].at) ||
			(t.at.Equal(c.pending[idx].at) && t.seq < c.pending[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := c.pending[idx]
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	t.done = true
	return t
}

func (t *fakeTask) Cancel() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	for i, p := range c.pending {
		if p == t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	return true
}
