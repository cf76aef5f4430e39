// File: core/event_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/momentics/hioload-ev/fake"
)

func newTestDriver() *Driver {
	return NewDriver(fake.NewBackend())
}

func TestTriggerDeliversOneCompletion(t *testing.T) {
	d := newTestDriver()
	r := NewRendezvous(d)
	e := MakeEvent(r, 7, 9)

	if e.Empty() {
		t.Fatal("fresh event must be active")
	}
	if !e.Trigger(true) {
		t.Fatal("first trigger must fire")
	}
	if !e.Empty() {
		t.Fatal("triggered event must be empty")
	}
	rid0, rid1, ok := r.Join()
	if !ok || rid0 != 7 || rid1 != 9 {
		t.Fatalf("expected completion (7, 9), got (%d, %d, %v)", rid0, rid1, ok)
	}
	if _, _, ok := r.Join(); ok {
		t.Fatal("only one completion expected")
	}
	e.Unuse()
}

func TestTriggerIsIdempotent(t *testing.T) {
	d := newTestDriver()
	r := NewRendezvous(d)
	e := MakeEvent(r, 1, 0)

	e.Trigger(true)
	if e.Trigger(true) {
		t.Fatal("second trigger must be a no-op")
	}
	e.Trigger(false)
	n := 0
	for {
		if _, _, ok := r.Join(); !ok {
			break
		}
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 completion, got %d", n)
	}
	e.Unuse()
}

func TestActiveListConsistency(t *testing.T) {
	d := newTestDriver()
	r := NewRendezvous(d)
	e1 := MakeEvent(r, 1, 0)
	e2 := MakeEvent(r, 2, 0)
	e3 := MakeEvent(r, 3, 0)

	// Removing from the middle of the intrusive list must not break
	// the remaining linkage.
	e2.Trigger(false)
	e1.Trigger(false)
	e3.Trigger(false)

	want := []uint64{2, 1, 3}
	for i, w := range want {
		rid0, _, ok := r.Join()
		if !ok || rid0 != w {
			t.Fatalf("completion %d: want %d, got (%d, %v)", i, w, rid0, ok)
		}
	}
	e1.Unuse()
	e2.Unuse()
	e3.Unuse()
}

func TestAtTriggerChainFiresInRegistrationOrder(t *testing.T) {
	d := newTestDriver()
	ra := NewRendezvous(d)
	rn := NewRendezvous(d)
	a := MakeEvent(ra, 0, 0)
	b := MakeEvent(rn, 1, 0)
	c := MakeEvent(rn, 2, 0)

	// The chain takes over our references to b and c.
	a.AtTrigger(b)
	a.AtTrigger(c)

	a.Trigger(false)

	if !b.Empty() || !c.Empty() {
		t.Fatal("chained notifiers must be empty after the primary fires")
	}
	rid0, _, ok := rn.Join()
	if !ok || rid0 != 1 {
		t.Fatalf("first chained completion: want 1, got (%d, %v)", rid0, ok)
	}
	rid0, _, ok = rn.Join()
	if !ok || rid0 != 2 {
		t.Fatalf("second chained completion: want 2, got (%d, %v)", rid0, ok)
	}
	a.Unuse()
}

func TestAtTriggerOnEmptyFiresImmediately(t *testing.T) {
	d := newTestDriver()
	r := NewRendezvous(d)
	rn := NewRendezvous(d)
	e := MakeEvent(r, 0, 0)
	e.Trigger(false)

	n := MakeEvent(rn, 5, 0)
	e.AtTrigger(n)

	if !n.Empty() {
		t.Fatal("notifier on an empty event must fire immediately")
	}
	if rid0, _, ok := rn.Join(); !ok || rid0 != 5 {
		t.Fatalf("expected immediate completion 5, got (%d, %v)", rid0, ok)
	}
	e.Unuse()
}

func TestDeadSentinel(t *testing.T) {
	if !Dead().Empty() {
		t.Fatal("dead event must be empty")
	}
	// Use/Unuse on the sentinel never destroy it.
	Dead().Use()
	Dead().Unuse()
	Dead().Unuse()
	if !Dead().Empty() {
		t.Fatal("dead event must stay empty")
	}

	d := newTestDriver()
	rn := NewRendezvous(d)
	n := MakeEvent(rn, 1, 0)
	Dead().AtTrigger(n)
	if !n.Empty() {
		t.Fatal("at-trigger on the dead event must fire the notifier immediately")
	}
}

func TestLeakDiagnosticWithAnnotation(t *testing.T) {
	var buf bytes.Buffer
	SetDiagnosticOutput(&buf)
	defer SetDiagnosticOutput(&bytes.Buffer{})

	d := newTestDriver()
	r := NewRendezvous(d)
	e := MakeEvent(r, 3, 0)
	e.Annotate("leaky.go", 42)
	e.Unuse()

	if got := buf.String(); !strings.Contains(got, "leaky.go:42: active event leaked") {
		t.Fatalf("expected annotated leak diagnostic, got %q", got)
	}
	// The unblock trigger still delivered a completion.
	if rid0, _, ok := r.Join(); !ok || rid0 != 3 {
		t.Fatalf("expected unblock completion 3, got (%d, %v)", rid0, ok)
	}
	if strings.Count(buf.String(), "leaked") != 1 {
		t.Fatal("expected exactly one diagnostic line")
	}
}

func TestVolatileRendezvousSuppressesLeakDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	SetDiagnosticOutput(&buf)
	defer SetDiagnosticOutput(&bytes.Buffer{})

	d := newTestDriver()
	r := NewVolatileRendezvous(d)
	e := MakeEvent(r, 0, 0)
	e.Unuse()

	if buf.Len() != 0 {
		t.Fatalf("volatile rendezvous must suppress diagnostics, got %q", buf.String())
	}
	// The unblock still completes.
	if _, _, ok := r.Join(); !ok {
		t.Fatal("unblock must still deliver a completion")
	}
}

func TestUnuseOfEmptyEventIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetDiagnosticOutput(&buf)
	defer SetDiagnosticOutput(&bytes.Buffer{})

	d := newTestDriver()
	r := NewRendezvous(d)
	e := MakeEvent(r, 0, 0)
	e.Trigger(false)
	e.Unuse()

	if buf.Len() != 0 {
		t.Fatalf("dropping an empty event must not report a leak, got %q", buf.String())
	}
}

func TestRefcountAccountsForHandlesAndChains(t *testing.T) {
	d := newTestDriver()
	r := NewRendezvous(d)
	rn := NewRendezvous(d)
	e := MakeEvent(r, 0, 0)
	n := MakeEvent(rn, 0, 0)

	if e.refcount != 1 {
		t.Fatalf("fresh event refcount: want 1, got %d", e.refcount)
	}
	e.Use()
	if e.refcount != 2 {
		t.Fatalf("after Use: want 2, got %d", e.refcount)
	}
	e.Unuse()

	n.Use() // second handle kept across the chain transfer
	e.AtTrigger(n)
	if n.refcount != 2 {
		t.Fatalf("chain link must hold one reference: want 2, got %d", n.refcount)
	}
	e.Trigger(false)
	if n.refcount != 1 {
		t.Fatalf("chain reference must be released on fire: want 1, got %d", n.refcount)
	}
	e.Unuse()
	n.Unuse()
}
