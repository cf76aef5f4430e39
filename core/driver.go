// File: core/driver.go
// Package core implements the driver loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The driver composes the ASAP set, the timer heap, and the fired list
// against an api.Backend readiness source. One RunOnce call is a tick:
// ripe timers fire first, then ASAP events, then closures woken so far;
// the backend wait follows, readiness is staged on the fired list and
// delivered, and closures woken by I/O run last.

package core

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/momentics/hioload-ev/api"
)

// fdWatch is the driver's per-descriptor bookkeeping: one event
// reference per direction plus the interest mask last pushed to the
// backend.
type fdWatch struct {
	ev   [2]*SimpleEvent
	mask api.EventMask
}

// Driver pumps I/O readiness, timer expiry, and deferred wake-ups until
// no scheduled work remains. All fields are owned by the goroutine
// calling RunOnce/Loop; only the signal forwarder touches sigMu state.
type Driver struct {
	backend api.Backend

	asap   asapSet
	timers timerSet
	fired  firedList

	unblockedHead *Rendezvous
	unblockedTail *Rendezvous

	fds map[int]*fdWatch

	clock   func() time.Time
	now     time.Time
	stopped bool

	readyBuf []api.Readiness

	// Signal delivery uses a self-pipe: a forwarder goroutine records
	// the signal and writes a wake byte; the tick drains the pipe and
	// stages the registered events.
	sigMu     sync.Mutex
	sigQueue  []os.Signal
	sigCh     chan os.Signal
	sigR      *os.File
	sigW      *os.File
	sigEvents map[os.Signal][]*SimpleEvent
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock overrides the driver's time source. Tests use this to run
// timers against a fake clock.
func WithClock(clock func() time.Time) Option {
	return func(d *Driver) { d.clock = clock }
}

// WithReadyBatch sets how many readiness records one backend wait may
// return.
func WithReadyBatch(n int) Option {
	return func(d *Driver) { d.readyBuf = make([]api.Readiness, n) }
}

// NewDriver creates a driver over the given readiness backend.
func NewDriver(backend api.Backend, opts ...Option) *Driver {
	d := &Driver{
		backend: backend,
		fds:     make(map[int]*fdWatch),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.readyBuf == nil {
		d.readyBuf = make([]api.Readiness, 128)
	}
	d.now = d.clock()
	return d
}

// current is the process-wide driver instance.
var current *Driver

// Initialize installs the process-wide driver over backend.
func Initialize(backend api.Backend, opts ...Option) *Driver {
	current = NewDriver(backend, opts...)
	return current
}

// Current returns the process-wide driver, or nil before Initialize.
func Current() *Driver { return current }

// Cleanup tears down the process-wide driver. No event may outlive it.
func Cleanup() {
	if current != nil {
		current.Cleanup()
		current = nil
	}
}

// Now returns the driver's monotonic view of time, refreshed at tick
// boundaries.
func (d *Driver) Now() time.Time { return d.now }

// AtTime schedules se to trigger at the given deadline. The driver
// takes its own reference; registering an EMPTY event is a no-op.
func (d *Driver) AtTime(when time.Time, se *SimpleEvent) {
	if se.Empty() {
		return
	}
	se.Use()
	d.timers.push(when, se)
}

// At schedules se to trigger after delay, measured from the driver's
// current tick time.
func (d *Driver) At(delay time.Duration, se *SimpleEvent) {
	d.AtTime(d.now.Add(delay), se)
}

// AtASAP schedules se to trigger before the next backend wait, after
// previously scheduled ASAP events.
func (d *Driver) AtASAP(se *SimpleEvent) {
	if se.Empty() {
		return
	}
	se.Use()
	d.asap.push(se)
}

// AtFD registers se to trigger when fd becomes ready in the given
// direction. If another active event already waits on that direction,
// the two are distributed: either trigger path fires both. Registering
// an EMPTY event is a no-op.
func (d *Driver) AtFD(fd int, dir api.Direction, se *SimpleEvent) error {
	if fd < 0 {
		return api.ErrBadDescriptor
	}
	if se.Empty() {
		return nil
	}
	w := d.fds[fd]
	if w == nil {
		w = &fdWatch{}
		d.fds[fd] = w
	}
	se.Use()
	if old := w.ev[dir]; old != nil {
		w.ev[dir] = nil
		se = d.Distribute(old, se)
	}
	w.ev[dir] = se
	return d.updateFD(fd, w)
}

// KillFD cancels both directions of fd: any registered events trigger
// immediately and the backend stops watching the descriptor.
func (d *Driver) KillFD(fd int) {
	w := d.fds[fd]
	if w == nil {
		return
	}
	for i, se := range w.ev {
		if se != nil {
			se.Trigger(false)
			se.Unuse()
			w.ev[i] = nil
		}
	}
	d.updateFD(fd, w)
}

// Distribute returns an event that, when triggered, triggers both a and
// b. It takes over one reference to each; the returned reference
// belongs to the caller. If either side is already EMPTY the other is
// returned unchanged.
func (d *Driver) Distribute(a, b *SimpleEvent) *SimpleEvent {
	if a.Empty() {
		a.Unuse()
		return b
	}
	if b.Empty() {
		b.Unuse()
		return a
	}
	r := NewVolatileRendezvous(d)
	se := MakeEvent(r, 0, 0)
	se.AtTrigger(a)
	se.AtTrigger(b)
	return se
}

// AtSignal registers se to trigger once when sig is delivered to the
// process. Registering an EMPTY event is a no-op.
func (d *Driver) AtSignal(sig os.Signal, se *SimpleEvent) error {
	if se.Empty() {
		return nil
	}
	if err := d.initSignals(); err != nil {
		return err
	}
	se.Use()
	d.sigEvents[sig] = append(d.sigEvents[sig], se)
	signal.Notify(d.sigCh, sig)
	return nil
}

func (d *Driver) initSignals() error {
	if d.sigR != nil {
		return nil
	}
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	if err := d.backend.Watch(int(r.Fd()), api.ReadReady); err != nil {
		r.Close()
		w.Close()
		return err
	}
	d.sigR, d.sigW = r, w
	d.sigCh = make(chan os.Signal, 16)
	d.sigEvents = make(map[os.Signal][]*SimpleEvent)
	go d.forwardSignals()
	return nil
}

// forwardSignals runs outside the driver goroutine: it records each
// delivered signal and writes a wake byte to the self-pipe so a blocked
// backend wait returns.
func (d *Driver) forwardSignals() {
	wake := []byte{0}
	for sig := range d.sigCh {
		d.sigMu.Lock()
		d.sigQueue = append(d.sigQueue, sig)
		d.sigMu.Unlock()
		d.sigW.Write(wake)
	}
}

// dispatchSignals drains the self-pipe and stages the events registered
// for each pending signal on the fired list.
func (d *Driver) dispatchSignals() {
	var buf [64]byte
	d.sigR.Read(buf[:])
	d.sigMu.Lock()
	sigs := d.sigQueue
	d.sigQueue = nil
	d.sigMu.Unlock()
	for _, sig := range sigs {
		evs := d.sigEvents[sig]
		delete(d.sigEvents, sig)
		for _, se := range evs {
			d.fired.push(se)
		}
	}
}

// sweepSignals releases registrations whose events went EMPTY elsewhere
// and returns the number still live.
func (d *Driver) sweepSignals() int {
	n := 0
	for sig, evs := range d.sigEvents {
		live := evs[:0]
		for _, se := range evs {
			if se.Empty() {
				se.Unuse()
			} else {
				live = append(live, se)
				n++
			}
		}
		if len(live) == 0 {
			delete(d.sigEvents, sig)
		} else {
			d.sigEvents[sig] = live
		}
	}
	return n
}

// updateFD recomputes fd's interest mask, dropping events that went
// EMPTY elsewhere, and pushes the mask to the backend when it changed.
// A descriptor with no live events leaves the watch table.
func (d *Driver) updateFD(fd int, w *fdWatch) error {
	for i, se := range w.ev {
		if se != nil && se.Empty() {
			se.Unuse()
			w.ev[i] = nil
		}
	}
	var mask api.EventMask
	if w.ev[api.Read] != nil {
		mask |= api.ReadReady
	}
	if w.ev[api.Write] != nil {
		mask |= api.WriteReady
	}
	if mask == w.mask {
		if mask == 0 {
			delete(d.fds, fd)
		}
		return nil
	}
	w.mask = mask
	err := d.backend.Watch(fd, mask)
	if mask == 0 {
		delete(d.fds, fd)
	}
	return err
}

func (d *Driver) updateFDs() error {
	for fd, w := range d.fds {
		if err := d.updateFD(fd, w); err != nil {
			return err
		}
	}
	return nil
}

// pushUnblocked queues r's blocked closure to run later this tick.
func (d *Driver) pushUnblocked(r *Rendezvous) {
	r.unblockedNext = nil
	if d.unblockedTail != nil {
		d.unblockedTail.unblockedNext = r
	} else {
		d.unblockedHead = r
	}
	d.unblockedTail = r
}

// runUnblocked runs each queued closure to its next suspension point.
// The closure is detached before running so it can re-block itself.
func (d *Driver) runUnblocked() {
	for d.unblockedHead != nil {
		r := d.unblockedHead
		d.unblockedHead = r.unblockedNext
		if d.unblockedHead == nil {
			d.unblockedTail = nil
		}
		r.unblockedNext = nil
		r.queued = false
		c := r.blocked
		r.blocked = nil
		if c != nil {
			c.Run()
		}
	}
}

// dispatchReadiness routes one backend readiness record: the signal
// pipe drains into staged signal events, descriptor readiness stages
// the watched events on the fired list. Events that went EMPTY between
// registration and readiness have already left the watch table.
func (d *Driver) dispatchReadiness(rd api.Readiness) {
	if d.sigR != nil && rd.FD == int(d.sigR.Fd()) {
		d.dispatchSignals()
		return
	}
	w := d.fds[rd.FD]
	if w == nil {
		return
	}
	if rd.Mask&(api.ReadReady|api.ErrorReady) != 0 {
		d.stageFD(w, api.Read)
	}
	if rd.Mask&(api.WriteReady|api.ErrorReady) != 0 {
		d.stageFD(w, api.Write)
	}
}

// stageFD moves the watch's event reference onto the fired list.
func (d *Driver) stageFD(w *fdWatch, dir api.Direction) {
	se := w.ev[dir]
	if se == nil {
		return
	}
	w.ev[dir] = nil
	d.fired.push(se)
}

// RunOnce executes one driver tick. It returns api.ErrIdle when no
// timers, descriptors, signals, or deferred events remain.
func (d *Driver) RunOnce() error {
	d.now = d.clock()

	// Ripe timers fire first, in (deadline, insertion) order.
	d.timers.cull()
	for !d.timers.empty() && !d.timers.expiry().After(d.now) {
		d.timers.popTrigger()
	}

	// Then the ASAP set, in insertion order.
	for !d.asap.empty() {
		se := d.asap.pop()
		se.Trigger(false)
		se.Unuse()
	}

	// Yield to closures woken by timers and ASAP before blocking.
	d.runUnblocked()

	if err := d.updateFDs(); err != nil {
		return err
	}
	nsig := d.sweepSignals()

	// Wait deadline: zero when more work is already runnable, the next
	// timer otherwise, unbounded when only I/O remains.
	d.timers.cull()
	timeout := time.Duration(-1)
	switch {
	case !d.asap.empty() || d.unblockedHead != nil:
		timeout = 0
	case !d.timers.empty():
		timeout = d.timers.expiry().Sub(d.now)
		if timeout < 0 {
			timeout = 0
		}
	case len(d.fds) == 0 && nsig == 0:
		return api.ErrIdle
	}

	n, err := d.backend.Wait(d.readyBuf, timeout)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.dispatchReadiness(d.readyBuf[i])
	}

	// Deliver staged readiness before yielding, so a woken closure
	// always finds the completion on its rendezvous.
	for !d.fired.empty() {
		se := d.fired.pop()
		se.Trigger(false)
		se.Unuse()
	}

	// Closures woken by I/O run last in the tick.
	d.runUnblocked()
	return nil
}

// Loop runs ticks until no scheduled work remains or Stop is called.
func (d *Driver) Loop() error {
	d.stopped = false
	for !d.stopped {
		if err := d.RunOnce(); err != nil {
			if errors.Is(err, api.ErrIdle) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Stop requests that Loop exit after the current tick.
func (d *Driver) Stop() { d.stopped = true }

// Cleanup releases every reference still held by the driver and closes
// the backend.
func (d *Driver) Cleanup() {
	d.asap.clear()
	d.timers.clear()
	d.fired.clear()
	for fd, w := range d.fds {
		for i, se := range w.ev {
			if se != nil {
				se.Unuse()
				w.ev[i] = nil
			}
		}
		if w.mask != 0 {
			d.backend.Watch(fd, 0)
		}
		delete(d.fds, fd)
	}
	if d.sigCh != nil {
		signal.Stop(d.sigCh)
		close(d.sigCh)
		d.sigR.Close()
		d.sigW.Close()
		for _, evs := range d.sigEvents {
			for _, se := range evs {
				se.Unuse()
			}
		}
		d.sigEvents = nil
		d.sigR, d.sigW = nil, nil
		d.sigCh = nil
	}
	d.unblockedHead, d.unblockedTail = nil, nil
	d.backend.Close()
}
