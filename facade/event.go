// File: facade/event.go
// Package facade implements the slot-carrying event handles.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"path/filepath"
	"runtime"

	"github.com/momentics/hioload-ev/core"
)

// Event is a handle on a single-shot occurrence with no payload slots.
// The zero value refers to the shared immortal EMPTY occurrence, so a
// default-constructed Event is always safe to use.
type Event struct {
	se *core.SimpleEvent
}

// EmptyEvent returns a handle on the shared immortal EMPTY occurrence.
func EmptyEvent() Event { return Event{core.Dead()} }

func (e Event) simple() *core.SimpleEvent {
	if e.se == nil {
		return core.Dead()
	}
	return e.se
}

// Empty reports whether the occurrence has been triggered or cancelled.
func (e Event) Empty() bool { return e.simple().Empty() }

// Trigger fires the occurrence. Triggering an EMPTY event is a no-op.
func (e Event) Trigger() { e.simple().Trigger(true) }

// AtTrigger registers n as a trigger notifier: when this occurrence
// fires, n fires too, in registration order. If this occurrence is
// already EMPTY, n fires immediately.
func (e Event) AtTrigger(n Event) {
	ns := n.simple()
	ns.Use()
	e.simple().AtTrigger(ns)
}

// Share returns another handle on the same occurrence, acquiring a
// reference. Triggering either handle empties both.
func (e Event) Share() Event {
	se := e.simple()
	se.Use()
	return Event{se}
}

// Drop releases this handle's reference. Dropping the last reference to
// an untriggered occurrence cancels it.
func (e Event) Drop() { e.simple().Unuse() }

// Annotate records the caller's source position for leak diagnostics
// and returns the handle for chaining.
func (e Event) Annotate() Event {
	if _, file, line, ok := runtime.Caller(1); ok {
		e.simple().Annotate(filepath.Base(file), line)
	}
	return e
}

// AnnotateAt records an explicit source position for leak diagnostics.
func (e Event) AnnotateAt(file string, line int) Event {
	e.simple().Annotate(file, line)
	return e
}

// Simple exposes the underlying occurrence for driver registration.
func (e Event) Simple() *core.SimpleEvent { return e.simple() }

// Event1 is a handle on a single-shot occurrence with one payload slot.
// Triggering through this handle writes the slot; triggering through a
// slot-less view of the same occurrence leaves it untouched.
type Event1[T any] struct {
	se   *core.SimpleEvent
	slot *T
}

func (e Event1[T]) simple() *core.SimpleEvent {
	if e.se == nil {
		return core.Dead()
	}
	return e.se
}

// Empty reports whether the occurrence has been triggered or cancelled.
func (e Event1[T]) Empty() bool { return e.simple().Empty() }

// Trigger fires the occurrence and writes v to the slot. A second
// trigger is a no-op and leaves the slot unchanged.
func (e Event1[T]) Trigger(v T) {
	if e.simple().Trigger(true) && e.slot != nil {
		*e.slot = v
	}
}

// AtTrigger registers n as a trigger notifier.
func (e Event1[T]) AtTrigger(n Event) {
	ns := n.simple()
	ns.Use()
	e.simple().AtTrigger(ns)
}

// BindAll returns a slot-less handle on the same occurrence. Triggering
// it empties this handle too but never writes the slot.
func (e Event1[T]) BindAll() Event {
	se := e.simple()
	se.Use()
	return Event{se}
}

// Share returns another handle on the same occurrence and slot.
func (e Event1[T]) Share() Event1[T] {
	e.simple().Use()
	return e
}

// Drop releases this handle's reference.
func (e Event1[T]) Drop() { e.simple().Unuse() }

// Annotate records the caller's source position for leak diagnostics.
func (e Event1[T]) Annotate() Event1[T] {
	if _, file, line, ok := runtime.Caller(1); ok {
		e.simple().Annotate(filepath.Base(file), line)
	}
	return e
}
