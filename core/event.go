// File: core/event.go
// Package core implements the shared single-shot event.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import "fmt"

// SimpleEvent is a shared, single-shot occurrence. It is ACTIVE from
// construction until triggered or cancelled, then EMPTY forever.
//
// A SimpleEvent is reference counted: external handles, the scheduling
// sets, the fired list, and trigger-chain links each hold one reference.
// When the last reference to a still-ACTIVE event is released, the event
// is triggered once without marking slots ("unblocked") before it is
// abandoned, so its rendezvous always observes a completion.
type SimpleEvent struct {
	refcount uint32

	// r is non-nil exactly while the event is ACTIVE. It is a
	// non-owning back-reference: neither side owns the other.
	r          *Rendezvous
	rid0, rid1 uint64

	// Intrusive linkage in the rendezvous's active-event list.
	next  *SimpleEvent
	pprev **SimpleEvent

	// firedNext links events staged on the driver's fired list.
	firedNext *SimpleEvent

	// chain holds trigger notifiers in registration order; one
	// reference per entry.
	chain []*SimpleEvent

	// annotation is a source position used in leak diagnostics.
	annotation string
}

// deadEvent is the process-wide immortal EMPTY sentinel. Use and Unuse
// on it are no-ops; it is never destroyed.
var deadEvent = &SimpleEvent{refcount: 1}

// Dead returns the shared immortal EMPTY event. Default-constructed
// facade handles point here.
func Dead() *SimpleEvent { return deadEvent }

// MakeEvent constructs an ACTIVE event bound to r with the given
// identifiers and links it into r's active list. The returned reference
// is the caller's (refcount 1).
func MakeEvent(r *Rendezvous, rid0, rid1 uint64) *SimpleEvent {
	se := &SimpleEvent{refcount: 1, r: r, rid0: rid0, rid1: rid1}
	r.add(se)
	return se
}

// Use acquires an additional reference.
func (se *SimpleEvent) Use() {
	if se == deadEvent {
		return
	}
	se.refcount++
}

// Unuse releases one reference. Dropping the last reference to an
// ACTIVE event unblocks it exactly once (a slot-less trigger), emitting
// a leak diagnostic unless the rendezvous is volatile.
func (se *SimpleEvent) Unuse() {
	if se == deadEvent {
		return
	}
	se.refcount--
	if se.refcount != 0 {
		return
	}
	if se.r != nil {
		if !se.r.volatile {
			if se.annotation != "" {
				diag.Printf("%s: active event leaked", se.annotation)
			} else {
				diag.Printf("active event leaked")
			}
		}
		// The unblock trigger may resurrect the event through a chained
		// notifier; hold a reference across it and re-check.
		se.refcount = 1
		se.Trigger(false)
		se.refcount--
		if se.refcount != 0 {
			return
		}
	}
	// EMPTY with no references: the chain has already been propagated,
	// nothing further to release.
}

// Empty reports whether the event has been triggered or cancelled.
func (se *SimpleEvent) Empty() bool { return se.r == nil }

// Trigger fires the event. It reports whether this call performed the
// trigger; triggering an EMPTY event is a no-op and returns false.
//
// markSlots is advisory to the facade layer: it signals whether
// user-visible payload slots should be written. The core does not touch
// slots.
//
// The trigger sequence: detach from the rendezvous, append the
// identifiers to its fired queue, wake its blocked closure, then fire
// the chained notifiers in registration order, releasing each chain
// reference.
func (se *SimpleEvent) Trigger(markSlots bool) bool {
	r := se.r
	if r == nil {
		return false
	}
	rid0, rid1 := se.rid0, se.rid1
	r.remove(se)
	se.r = nil
	r.complete(rid0, rid1)
	se.propagateChain()
	return true
}

// propagateChain fires and releases the trigger notifiers in FIFO
// order. Notifiers registered on this event after this point observe it
// as EMPTY and fire immediately.
func (se *SimpleEvent) propagateChain() {
	chain := se.chain
	se.chain = nil
	for _, n := range chain {
		n.Trigger(false)
		n.Unuse()
	}
}

// AtTrigger appends notifier to the event's trigger chain, taking
// ownership of one reference to it. If the event is already EMPTY the
// notifier is triggered (and released) immediately.
func (se *SimpleEvent) AtTrigger(notifier *SimpleEvent) {
	if se.r == nil {
		notifier.Trigger(false)
		notifier.Unuse()
		return
	}
	se.chain = append(se.chain, notifier)
}

// Annotate attaches a source position used when reporting a leaked
// active event.
func (se *SimpleEvent) Annotate(file string, line int) {
	se.annotation = fmt.Sprintf("%s:%d", file, line)
}
