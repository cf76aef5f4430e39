//go:build unix && !linux
// +build unix,!linux

// File: reactor/backend_poll.go
// Author: momentics <momentics@gmail.com>
//
// poll(2)-based readiness backend for non-Linux Unixes.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-ev/api"
)

// pollBackend implements api.Backend over poll(2). The pollfd array is
// rebuilt lazily after watch-set changes.
type pollBackend struct {
	masks  map[int]api.EventMask
	pfds   []unix.PollFd
	dirty  bool
	closed bool
}

// NewBackend constructs the platform readiness backend.
func NewBackend() (api.Backend, error) {
	return &pollBackend{masks: make(map[int]api.EventMask)}, nil
}

func (b *pollBackend) Watch(fd int, mask api.EventMask) error {
	if b.closed {
		return api.ErrBackendClosed
	}
	if mask == 0 {
		delete(b.masks, fd)
	} else {
		b.masks[fd] = mask
	}
	b.dirty = true
	return nil
}

func (b *pollBackend) rebuild() {
	b.pfds = b.pfds[:0]
	for fd, mask := range b.masks {
		var events int16
		if mask&api.ReadReady != 0 {
			events |= unix.POLLIN
		}
		if mask&api.WriteReady != 0 {
			events |= unix.POLLOUT
		}
		b.pfds = append(b.pfds, unix.PollFd{Fd: int32(fd), Events: events})
	}
	b.dirty = false
}

func (b *pollBackend) Wait(out []api.Readiness, timeout time.Duration) (int, error) {
	if b.closed {
		return 0, api.ErrBackendClosed
	}
	if b.dirty {
		b.rebuild()
	}
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
		if msec == 0 && timeout > 0 {
			msec = 1
		}
	}
	n, err := unix.Poll(b.pfds, msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("poll: %w", err)
	}
	filled := 0
	for i := range b.pfds {
		if filled == len(out) || n == 0 {
			break
		}
		re := b.pfds[i].Revents
		if re == 0 {
			continue
		}
		n--
		var mask api.EventMask
		if re&(unix.POLLIN|unix.POLLHUP) != 0 {
			mask |= api.ReadReady
		}
		if re&unix.POLLOUT != 0 {
			mask |= api.WriteReady
		}
		if re&(unix.POLLERR|unix.POLLNVAL) != 0 {
			mask |= api.ErrorReady
		}
		out[filled] = api.Readiness{FD: int(b.pfds[i].Fd), Mask: mask}
		filled++
	}
	return filled, nil
}

func (b *pollBackend) Close() error {
	b.closed = true
	return nil
}
