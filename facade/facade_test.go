// File: facade/facade_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-ev/api"
	"github.com/momentics/hioload-ev/core"
	"github.com/momentics/hioload-ev/facade"
	"github.com/momentics/hioload-ev/fake"
)

type clock struct{ now time.Time }

func newClock() *clock {
	return &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newDriver() (*core.Driver, *clock) {
	c := newClock()
	return core.NewDriver(fake.NewBackend(), core.WithClock(func() time.Time { return c.now })), c
}

func tick(t *testing.T, d *core.Driver) {
	t.Helper()
	if err := d.RunOnce(); err != nil && !errors.Is(err, api.ErrIdle) {
		t.Fatalf("RunOnce: %v", err)
	}
}

func TestSlotEventWritesOnTrigger(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous(d)

	got := 0
	e := facade.MakeSlot(r, &got)
	e.Trigger(42)

	if got != 42 {
		t.Fatalf("slot: want 42, got %d", got)
	}
	if !e.Empty() {
		t.Fatal("event must be empty after trigger")
	}
	if !r.Join() {
		t.Fatal("rendezvous must observe the completion")
	}

	e.Trigger(7)
	if got != 42 {
		t.Fatalf("second trigger must not rewrite the slot, got %d", got)
	}
	e.Drop()
}

func TestBindAllLeavesSlotUntouched(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous(d)

	got := -1
	e := facade.MakeSlot(r, &got)
	all := e.BindAll()
	all.Trigger()

	if got != -1 {
		t.Fatalf("slot-less trigger must not write the slot, got %d", got)
	}
	if !e.Empty() {
		t.Fatal("both handles share one occurrence")
	}
	e.Trigger(9)
	if got != -1 {
		t.Fatalf("late slot trigger must be absorbed, got %d", got)
	}
	all.Drop()
	e.Drop()
}

func TestZeroValueEventIsSafe(t *testing.T) {
	var e facade.Event
	if !e.Empty() {
		t.Fatal("zero-value event must be empty")
	}
	e.Trigger() // no-op, must not panic
	e.Drop()    // no-op on the immortal sentinel
}

func TestShareDeliversOneCompletion(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous(d)

	e := r.Make()
	dup := e.Share()
	dup.Trigger()
	e.Trigger() // same occurrence: absorbed

	n := 0
	for r.Join() {
		n++
	}
	if n != 1 {
		t.Fatalf("shared handles must deliver one completion, got %d", n)
	}
	dup.Drop()
	e.Drop()
}

func TestRendezvous1DeliversIdentifiersInTriggerOrder(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous1[string](d)

	ea := r.Make("a")
	eb := r.Make("b")
	eb.Trigger()
	ea.Trigger()

	if id, ok := r.Join(); !ok || id != "b" {
		t.Fatalf(`first join: want "b", got (%q, %v)`, id, ok)
	}
	if id, ok := r.Join(); !ok || id != "a" {
		t.Fatalf(`second join: want "a", got (%q, %v)`, id, ok)
	}
	ea.Drop()
	eb.Drop()
}

func TestRendezvous2DeliversIdentifierPair(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous2[string, int](d)

	e := r.Make("fd", 7)
	e.Trigger()

	i, j, ok := r.Join()
	if !ok || i != "fd" || j != 7 {
		t.Fatalf(`want ("fd", 7), got (%q, %d, %v)`, i, j, ok)
	}
	e.Drop()
}

func TestDistributeFiresBothSides(t *testing.T) {
	d, _ := newDriver()
	ra := facade.NewRendezvous(d)
	rb := facade.NewRendezvous(d)

	a := ra.Make()
	b := rb.Make()
	both := facade.Distribute(d, a, b)
	both.Trigger()

	if !a.Empty() || !b.Empty() {
		t.Fatal("distribute must fire both sides")
	}
	if !ra.Join() || !rb.Join() {
		t.Fatal("both rendezvous must observe completions")
	}
	both.Drop()
	a.Drop()
	b.Drop()
}

func TestWithTimeoutFiresAtDeadline(t *testing.T) {
	d, c := newDriver()
	r := facade.NewRendezvous(d)

	e := facade.WithTimeout(d, 10*time.Millisecond, r.Make())
	tick(t, d)
	if e.Empty() {
		t.Fatal("event must survive until the deadline")
	}

	c.now = c.now.Add(20 * time.Millisecond)
	tick(t, d)
	if !e.Empty() {
		t.Fatal("timeout must fire the event")
	}
	if !r.Join() {
		t.Fatal("rendezvous must observe the timeout completion")
	}
	e.Drop()
}

func TestWithTimeoutLosesToCompletion(t *testing.T) {
	d, c := newDriver()
	r := facade.NewRendezvous(d)

	e := facade.WithTimeout(d, 10*time.Millisecond, r.Make())
	e.Trigger()

	c.now = c.now.Add(20 * time.Millisecond)
	tick(t, d)

	n := 0
	for r.Join() {
		n++
	}
	if n != 1 {
		t.Fatalf("completion and timeout must collapse to one delivery, got %d", n)
	}
	e.Drop()
}

func TestOnReadyRunsWithCompletionDelivered(t *testing.T) {
	d, c := newDriver()
	r := facade.NewRendezvous1[int](d)

	e := r.Make(5)
	got := -1
	r.OnReady(func() {
		if id, ok := r.Join(); ok {
			got = id
		}
	})

	facade.WithTimeout(d, time.Millisecond, e)
	c.now = c.now.Add(5 * time.Millisecond)
	tick(t, d)

	if got != 5 {
		t.Fatalf("closure must observe completion 5, got %d", got)
	}
	e.Drop()
}

func TestAnnotatedLeakReportsCallSite(t *testing.T) {
	d, _ := newDriver()
	r := facade.NewRendezvous(d)

	e := r.Make().Annotate()
	var rep diagCapture
	core.SetDiagnosticOutput(&rep)
	e.Drop()
	core.SetDiagnosticOutput(&diagCapture{})

	if !rep.contains("facade_test.go") || !rep.contains("active event leaked") {
		t.Fatalf("leak diagnostic must carry the annotated call site, got %q", rep.String())
	}
}

type diagCapture struct{ data []byte }

func (c *diagCapture) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *diagCapture) String() string { return string(c.data) }

func (c *diagCapture) contains(s string) bool {
	return strings.Contains(c.String(), s)
}
