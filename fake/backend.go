// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides test doubles for the hioload-ev contracts.
package fake

import (
	"time"

	"github.com/momentics/hioload-ev/api"
)

// Backend is a scripted readiness source for driver tests. Readiness is
// injected with Ready and handed out on the next Wait; an empty queue
// returns immediately regardless of the requested timeout.
type Backend struct {
	// Watches records the current interest mask per descriptor.
	Watches map[int]api.EventMask
	// LastTimeout is the timeout passed to the most recent Wait.
	LastTimeout time.Duration
	// Waits counts Wait calls.
	Waits int

	queue  []api.Readiness
	closed bool
}

// NewBackend creates an empty fake backend.
func NewBackend() *Backend {
	return &Backend{Watches: make(map[int]api.EventMask)}
}

// Ready queues one readiness record for the next Wait.
func (b *Backend) Ready(fd int, mask api.EventMask) {
	b.queue = append(b.queue, api.Readiness{FD: fd, Mask: mask})
}

// Watch implements api.Backend.
func (b *Backend) Watch(fd int, mask api.EventMask) error {
	if b.closed {
		return api.ErrBackendClosed
	}
	if mask == 0 {
		delete(b.Watches, fd)
	} else {
		b.Watches[fd] = mask
	}
	return nil
}

// Wait implements api.Backend. It never blocks.
func (b *Backend) Wait(out []api.Readiness, timeout time.Duration) (int, error) {
	if b.closed {
		return 0, api.ErrBackendClosed
	}
	b.Waits++
	b.LastTimeout = timeout
	n := copy(out, b.queue)
	b.queue = b.queue[n:]
	return n, nil
}

// Close implements api.Backend.
func (b *Backend) Close() error {
	b.closed = true
	return nil
}
