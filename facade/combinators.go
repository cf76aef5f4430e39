// File: facade/combinators.go
// Package facade implements event composition helpers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"os"
	"time"

	"github.com/momentics/hioload-ev/core"
)

// Distribute returns an event that triggers both a and b. If either is
// already EMPTY the other is returned. Both arguments remain valid
// handles.
func Distribute(d *core.Driver, a, b Event) Event {
	as, bs := a.simple(), b.simple()
	as.Use()
	bs.Use()
	return Event{d.Distribute(as, bs)}
}

// WithTimeout arranges for e to trigger no later than delay from the
// driver's current tick time. Whichever path fires first wins; the
// loser becomes a no-op.
func WithTimeout(d *core.Driver, delay time.Duration, e Event) Event {
	d.At(delay, e.simple())
	return e
}

// WithTimeoutAt is WithTimeout with an absolute deadline.
func WithTimeoutAt(d *core.Driver, when time.Time, e Event) Event {
	d.AtTime(when, e.simple())
	return e
}

// WithSignal arranges for e to trigger when sig is delivered, racing
// the event's normal completion.
func WithSignal(d *core.Driver, sig os.Signal, e Event) (Event, error) {
	if err := d.AtSignal(sig, e.simple()); err != nil {
		return e, err
	}
	return e, nil
}
