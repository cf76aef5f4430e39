//go:build unix
// +build unix

// File: core/driver_signal_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import (
	"syscall"
	"testing"
	"time"

	"github.com/momentics/hioload-ev/api"
	"github.com/momentics/hioload-ev/fake"
)

func TestAtSignalDeliversOnce(t *testing.T) {
	be := fake.NewBackend()
	d := NewDriver(be)
	r := NewRendezvous(d)
	e := MakeEvent(r, 1, 0)
	if err := d.AtSignal(syscall.SIGUSR1, e); err != nil {
		t.Fatalf("AtSignal: %v", err)
	}
	e.Unuse()
	defer d.Cleanup()

	pipeFD := int(d.sigR.Fd())
	if _, watched := be.Watches[pipeFD]; !watched {
		t.Fatal("signal pipe must be watched")
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	// Give the forwarder goroutine time to record the signal and write
	// the wake byte; the tick's pipe read then drains it.
	time.Sleep(50 * time.Millisecond)
	be.Ready(pipeFD, api.ReadReady)
	tick(t, d)

	if !e.Empty() {
		t.Fatal("signal must trigger the registered event")
	}
	if n := countReady(r); n != 1 {
		t.Fatalf("expected one signal completion, got %d", n)
	}
}
