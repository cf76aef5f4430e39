// File: core/fired.go
// Package core implements the fired-event staging list.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

// firedList stages events whose readiness has been observed but whose
// delivery has not yet run during this tick. It is a singly-linked
// FIFO threaded through SimpleEvent.firedNext; each entry holds one
// event reference.
//
// Draining the list before yielding to closures guarantees that a
// closure woken by an event never runs before the event's rendezvous
// has observed the completion.
type firedList struct {
	head *SimpleEvent
	tail *SimpleEvent
}

func (f *firedList) empty() bool { return f.head == nil }

// push appends se, taking over one reference from the caller.
func (f *firedList) push(se *SimpleEvent) {
	se.firedNext = nil
	if f.tail != nil {
		f.tail.firedNext = se
	} else {
		f.head = se
	}
	f.tail = se
}

// pop removes the head in FIFO order and transfers its reference to
// the caller.
func (f *firedList) pop() *SimpleEvent {
	se := f.head
	f.head = se.firedNext
	if f.head == nil {
		f.tail = nil
	}
	se.firedNext = nil
	return se
}

// clear releases all residual references.
func (f *firedList) clear() {
	for !f.empty() {
		f.pop().Unuse()
	}
}
