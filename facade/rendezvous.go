// File: facade/rendezvous.go
// Package facade implements the identifier-carrying rendezvous flavors.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"github.com/momentics/hioload-ev/api"
	"github.com/momentics/hioload-ev/core"
)

// Rendezvous collects completions of events that carry no identifier.
type Rendezvous struct {
	r *core.Rendezvous
}

// NewRendezvous creates a rendezvous scheduled by d.
func NewRendezvous(d *core.Driver) *Rendezvous {
	return &Rendezvous{core.NewRendezvous(d)}
}

// NewVolatileRendezvous creates a rendezvous whose events never emit
// leak diagnostics.
func NewVolatileRendezvous(d *core.Driver) *Rendezvous {
	return &Rendezvous{core.NewVolatileRendezvous(d)}
}

// Make creates a new slot-less event bound to r.
func (r *Rendezvous) Make() Event {
	return Event{core.MakeEvent(r.r, 0, 0)}
}

// MakeSlot creates a new one-slot event bound to r. The slot is written
// when the event is triggered through the returned handle.
func MakeSlot[T any](r *Rendezvous, slot *T) Event1[T] {
	return Event1[T]{se: core.MakeEvent(r.r, 0, 0), slot: slot}
}

// Join consumes the next completion, reporting whether one was ready.
func (r *Rendezvous) Join() bool {
	_, _, ok := r.r.Join()
	return ok
}

// HasReady reports whether a completion is waiting.
func (r *Rendezvous) HasReady() bool { return r.r.HasReady() }

// Block registers c as the single waiter.
func (r *Rendezvous) Block(c api.Closure) { r.r.Block(c) }

// OnReady blocks fn as the waiter; it runs once the next completion
// arrives.
func (r *Rendezvous) OnReady(fn func()) { r.r.Block(api.ClosureFunc(fn)) }

// Destroy disowns all still-active events and discards unobserved
// completions.
func (r *Rendezvous) Destroy() { r.r.Destroy() }

// Rendezvous1 collects completions tagged with one identifier of type I.
type Rendezvous1[I comparable] struct {
	r   *core.Rendezvous
	ids map[uint64]I
	seq uint64
}

// NewRendezvous1 creates a one-identifier rendezvous scheduled by d.
func NewRendezvous1[I comparable](d *core.Driver) *Rendezvous1[I] {
	return &Rendezvous1[I]{r: core.NewRendezvous(d), ids: make(map[uint64]I)}
}

// NewVolatileRendezvous1 is NewRendezvous1 with leak diagnostics
// suppressed.
func NewVolatileRendezvous1[I comparable](d *core.Driver) *Rendezvous1[I] {
	return &Rendezvous1[I]{r: core.NewVolatileRendezvous(d), ids: make(map[uint64]I)}
}

// Make creates a new event bound to r that delivers id on completion.
func (r *Rendezvous1[I]) Make(id I) Event {
	k := r.seq
	r.seq++
	r.ids[k] = id
	return Event{core.MakeEvent(r.r, k, 0)}
}

// MakeSlot1 creates a one-slot event on r delivering id on completion.
func MakeSlot1[I comparable, T any](r *Rendezvous1[I], id I, slot *T) Event1[T] {
	k := r.seq
	r.seq++
	r.ids[k] = id
	return Event1[T]{se: core.MakeEvent(r.r, k, 0), slot: slot}
}

// Join consumes the next completion and returns its identifier.
func (r *Rendezvous1[I]) Join() (I, bool) {
	rid0, _, ok := r.r.Join()
	if !ok {
		var zero I
		return zero, false
	}
	id := r.ids[rid0]
	delete(r.ids, rid0)
	return id, true
}

// HasReady reports whether a completion is waiting.
func (r *Rendezvous1[I]) HasReady() bool { return r.r.HasReady() }

// Block registers c as the single waiter.
func (r *Rendezvous1[I]) Block(c api.Closure) { r.r.Block(c) }

// OnReady blocks fn as the waiter.
func (r *Rendezvous1[I]) OnReady(fn func()) { r.r.Block(api.ClosureFunc(fn)) }

// Destroy disowns all still-active events and discards unobserved
// completions.
func (r *Rendezvous1[I]) Destroy() { r.r.Destroy() }

// idPair carries a two-identifier tag.
type idPair[I, J comparable] struct {
	i I
	j J
}

// Rendezvous2 collects completions tagged with two identifiers.
type Rendezvous2[I, J comparable] struct {
	r   *core.Rendezvous
	ids map[uint64]idPair[I, J]
	seq uint64
}

// NewRendezvous2 creates a two-identifier rendezvous scheduled by d.
func NewRendezvous2[I, J comparable](d *core.Driver) *Rendezvous2[I, J] {
	return &Rendezvous2[I, J]{r: core.NewRendezvous(d), ids: make(map[uint64]idPair[I, J])}
}

// Make creates a new event bound to r delivering (i, j) on completion.
func (r *Rendezvous2[I, J]) Make(i I, j J) Event {
	k := r.seq
	r.seq++
	r.ids[k] = idPair[I, J]{i, j}
	return Event{core.MakeEvent(r.r, k, 0)}
}

// Join consumes the next completion and returns its identifiers.
func (r *Rendezvous2[I, J]) Join() (I, J, bool) {
	rid0, _, ok := r.r.Join()
	if !ok {
		var zi I
		var zj J
		return zi, zj, false
	}
	p := r.ids[rid0]
	delete(r.ids, rid0)
	return p.i, p.j, true
}

// HasReady reports whether a completion is waiting.
func (r *Rendezvous2[I, J]) HasReady() bool { return r.r.HasReady() }

// Block registers c as the single waiter.
func (r *Rendezvous2[I, J]) Block(c api.Closure) { r.r.Block(c) }

// OnReady blocks fn as the waiter.
func (r *Rendezvous2[I, J]) OnReady(fn func()) { r.r.Block(api.ClosureFunc(fn)) }

// Destroy disowns all still-active events and discards unobserved
// completions.
func (r *Rendezvous2[I, J]) Destroy() { r.r.Destroy() }
