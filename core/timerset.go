// File: core/timerset.go
// Package core implements the four-ary timer heap with lazy culling.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import "time"

// timerArity is the heap fan-out. Four keeps sibling records within a
// cache line or two during sift operations.
const timerArity = 4

// trec is one timer record. Records are ordered by (when, order);
// order is a monotonic insertion sequence that preserves FIFO among
// equal deadlines.
type trec struct {
	when  time.Time
	order uint64
	se    *SimpleEvent
}

func (t trec) less(u trec) bool {
	if !t.when.Equal(u.when) {
		return t.when.Before(u.when)
	}
	return t.order < u.order
}

// timerSet is an array-backed four-ary min-heap of timer records. The
// root's children live at 1..3; node i >= 1 has children 4i..4i+3 and
// parent i/4.
//
// Cancelled timers are not deleted in place: a record whose event is
// already EMPTY stays in the heap and is evicted opportunistically
// (lazy cull) at the array end before a push, by bubbling toward the
// leaves during sift-up, and from the top after a pop. Heap order may
// be violated around EMPTY records pending cull; the invariant holds
// between operations.
type timerSet struct {
	ts    []trec
	nts   int
	order uint64
}

func (t *timerSet) empty() bool { return t.nts == 0 }

func (t *timerSet) size() int { return t.nts }

// expiry returns the top record's deadline. Callers cull first.
func (t *timerSet) expiry() time.Time { return t.ts[0].when }

// top returns the top record without transferring ownership.
func (t *timerSet) top() trec { return t.ts[0] }

func (t *timerSet) expand() {
	ncap := 31
	if t.ts != nil {
		ncap = len(t.ts)*4 + 3
	}
	nts := make([]trec, ncap)
	copy(nts, t.ts[:t.nts])
	t.ts = nts
}

// push inserts se with the given deadline, taking over one reference
// from the caller.
func (t *timerSet) push(when time.Time, se *SimpleEvent) {
	// Harvest empty records at the heap's end.
	for t.nts != 0 && t.ts[t.nts-1].se.Empty() {
		t.nts--
		t.ts[t.nts].se.Unuse()
		t.ts[t.nts] = trec{}
	}

	if t.nts == len(t.ts) {
		t.expand()
	}
	top := t.nts
	t.order++
	t.ts[top] = trec{when: when, order: t.order, se: se}
	t.nts++

	// Sift the new record up. An EMPTY parent is not swapped with the
	// new record; instead the smallest of its children is pulled up
	// into the parent slot, pushing the EMPTY toward the leaves where
	// the next push can harvest it.
	i := top
	for i != 0 {
		trial := i / timerArity
		if t.ts[trial].se.Empty() {
			xtrial := trial * timerArity
			xend := xtrial + timerArity
			if trial == 0 {
				xtrial = 1
			}
			if xend > t.nts {
				xend = t.nts
			}
			smallest := xtrial
			for x := xtrial + 1; x < xend; x++ {
				if t.ts[x].less(t.ts[smallest]) {
					smallest = x
				}
			}
			t.ts[trial].when = t.ts[smallest].when
			t.ts[trial].order = t.ts[smallest].order
			t.ts[trial].se, t.ts[smallest].se = t.ts[smallest].se, t.ts[trial].se
			if smallest != i {
				break
			}
			i = trial
		} else if t.ts[i].less(t.ts[trial]) {
			t.ts[i], t.ts[trial] = t.ts[trial], t.ts[i]
			i = trial
		} else {
			break
		}
	}
}

// popTrigger removes the top record, triggers its event, and releases
// the heap's reference. EMPTY records exposed at the top are culled.
func (t *timerSet) popTrigger() {
	se := t.ts[0].se
	t.removeTop()
	t.cull()
	se.Trigger(false)
	se.Unuse()
}

// cull evicts EMPTY records from the top, releasing their references.
func (t *timerSet) cull() {
	for t.nts != 0 && t.ts[0].se.Empty() {
		se := t.ts[0].se
		t.removeTop()
		se.Unuse()
	}
}

// removeTop drops ts[0] without releasing its event: the last record
// replaces it and sifts down.
func (t *timerSet) removeTop() {
	t.nts--
	if t.nts == 0 {
		t.ts[0] = trec{}
		return
	}
	t.ts[0] = t.ts[t.nts]
	t.ts[t.nts] = trec{}

	i := 0
	for {
		smallest := i
		trial := i * timerArity
		end := trial + timerArity
		if i == 0 {
			trial = 1
		}
		if end > t.nts {
			end = t.nts
		}
		for ; trial < end; trial++ {
			if t.ts[trial].less(t.ts[smallest]) {
				smallest = trial
			}
		}
		if smallest == i {
			break
		}
		t.ts[i], t.ts[smallest] = t.ts[smallest], t.ts[i]
		i = smallest
	}
}

// clear releases every reference still held by the heap.
func (t *timerSet) clear() {
	for i := 0; i < t.nts; i++ {
		t.ts[i].se.Unuse()
		t.ts[i] = trec{}
	}
	t.nts = 0
}
