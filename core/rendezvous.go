// File: core/rendezvous.go
// Package core implements the rendezvous completion point.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-ev/api"
)

// completion is one fired identifier pair awaiting observation.
type completion struct {
	rid0, rid1 uint64
}

// Rendezvous collects the completions of the events bound to it and
// delivers them, FIFO, to a single blocked closure.
//
// Events do not own the rendezvous and the rendezvous does not own its
// events; either side may be destroyed first. Destroy disowns every
// still-ACTIVE event so a later trigger on one is a harmless no-op.
type Rendezvous struct {
	d *Driver

	// active heads the intrusive list of ACTIVE events bound here.
	active *SimpleEvent

	// fired queues (rid0, rid1) pairs of triggered events not yet
	// observed by the waiter.
	fired *queue.Queue

	// blocked is the single waiter, if any.
	blocked api.Closure

	// unblockedNext chains this rendezvous on the driver's runnable
	// list; queued guards against a second enqueue.
	unblockedNext *Rendezvous
	queued        bool

	// volatile suppresses leak diagnostics for events bound here.
	volatile bool
}

// NewRendezvous creates a rendezvous scheduled by d.
func NewRendezvous(d *Driver) *Rendezvous {
	return &Rendezvous{d: d, fired: queue.New()}
}

// NewVolatileRendezvous creates a rendezvous whose events never emit
// leak diagnostics.
func NewVolatileRendezvous(d *Driver) *Rendezvous {
	r := NewRendezvous(d)
	r.volatile = true
	return r
}

// SetVolatile changes whether leak diagnostics are suppressed.
func (r *Rendezvous) SetVolatile(v bool) { r.volatile = v }

// add links a freshly constructed ACTIVE event into the active list.
// Called by MakeEvent.
func (r *Rendezvous) add(se *SimpleEvent) {
	se.next = r.active
	if r.active != nil {
		r.active.pprev = &se.next
	}
	se.pprev = &r.active
	r.active = se
}

// remove unlinks an event from the active list. Called on trigger and
// during Destroy.
func (r *Rendezvous) remove(se *SimpleEvent) {
	*se.pprev = se.next
	if se.next != nil {
		se.next.pprev = se.pprev
	}
	se.next = nil
	se.pprev = nil
}

// complete appends a fired identifier pair and wakes the blocked
// closure, if any, by queueing this rendezvous with the driver. A
// blocked closure is marked runnable at most once until it runs.
func (r *Rendezvous) complete(rid0, rid1 uint64) {
	r.fired.Add(completion{rid0, rid1})
	if r.blocked != nil && !r.queued {
		r.queued = true
		r.d.pushUnblocked(r)
	}
}

// HasReady reports whether a fired completion is waiting.
func (r *Rendezvous) HasReady() bool { return r.fired.Length() != 0 }

// Join pops the next fired completion in FIFO order.
func (r *Rendezvous) Join() (rid0, rid1 uint64, ok bool) {
	if r.fired.Length() == 0 {
		return 0, 0, false
	}
	c := r.fired.Remove().(completion)
	return c.rid0, c.rid1, true
}

// Block registers c as the waiter. Registering a second waiter is a
// programming error and panics. If completions are already pending the
// closure is queued immediately.
func (r *Rendezvous) Block(c api.Closure) {
	if r.blocked != nil {
		panic("hioload-ev: rendezvous already has a blocked closure")
	}
	r.blocked = c
	if r.fired.Length() != 0 && !r.queued {
		r.queued = true
		r.d.pushUnblocked(r)
	}
}

// Unblock clears the blocked closure without running it.
func (r *Rendezvous) Unblock() { r.blocked = nil }

// Driver returns the driver scheduling this rendezvous.
func (r *Rendezvous) Driver() *Driver { return r.d }

// Destroy severs the rendezvous from its events. Every still-ACTIVE
// event is disowned: its back-reference is cleared, it is unlinked, and
// its trigger chain is propagated, so a later Trigger is a no-op.
// Unobserved completions are discarded.
func (r *Rendezvous) Destroy() {
	for r.active != nil {
		se := r.active
		r.remove(se)
		se.r = nil
		se.propagateChain()
	}
	r.fired = queue.New()
	r.blocked = nil
}
