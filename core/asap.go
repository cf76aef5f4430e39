// File: core/asap.go
// Package core implements the run-to-completion ASAP set.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

// asapSet is a FIFO ring of events to fire before the next backend
// wait. Each slot holds one event reference. Head and tail are
// monotonic counters masked by capmask; capacity is always a power of
// two minus one plus one slot, growing 0 -> 32 -> 4*cap.
type asapSet struct {
	ses     []*SimpleEvent
	capmask uint32
	head    uint32
	tail    uint32
}

func (a *asapSet) empty() bool { return a.head == a.tail }

func (a *asapSet) size() int { return int(a.tail - a.head) }

// push appends se, taking over one reference from the caller.
func (a *asapSet) push(se *SimpleEvent) {
	if a.ses == nil || a.tail-a.head == a.capmask+1 {
		a.expand()
	}
	a.ses[a.tail&a.capmask] = se
	a.tail++
}

// pop removes the head and transfers its reference to the caller.
func (a *asapSet) pop() *SimpleEvent {
	se := a.ses[a.head&a.capmask]
	a.ses[a.head&a.capmask] = nil
	a.head++
	return se
}

// expand reallocates with capmask 31, thereafter 4*capmask+3, and
// compacts so head restarts at 0.
func (a *asapSet) expand() {
	ncapmask := uint32(31)
	if a.ses != nil {
		ncapmask = a.capmask*4 + 3
	}
	na := make([]*SimpleEvent, ncapmask+1)
	i := uint32(0)
	for x := a.head; x != a.tail; x++ {
		na[i] = a.ses[x&a.capmask]
		i++
	}
	a.ses = na
	a.capmask = ncapmask
	a.head = 0
	a.tail = i
}

// clear releases all residual references.
func (a *asapSet) clear() {
	for !a.empty() {
		a.pop().Unuse()
	}
}
