//go:build linux
// +build linux

// File: reactor/backend_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based readiness backend and factory.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-ev/api"
)

// epollBackend implements api.Backend over an epoll instance.
type epollBackend struct {
	epfd   int
	masks  map[int]api.EventMask
	events []unix.EpollEvent
	closed bool
}

// NewBackend constructs the platform readiness backend for Linux.
func NewBackend() (api.Backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollBackend{
		epfd:  epfd,
		masks: make(map[int]api.EventMask),
	}, nil
}

// Watch sets the interest mask for fd; a zero mask removes it.
func (b *epollBackend) Watch(fd int, mask api.EventMask) error {
	if b.closed {
		return api.ErrBackendClosed
	}
	var ev unix.EpollEvent
	ev.Fd = int32(fd)
	if mask&api.ReadReady != 0 {
		ev.Events |= unix.EPOLLIN
	}
	if mask&api.WriteReady != 0 {
		ev.Events |= unix.EPOLLOUT
	}
	_, watched := b.masks[fd]
	switch {
	case mask == 0 && watched:
		delete(b.masks, fd)
		if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
			return fmt.Errorf("epoll ctl del: %w", err)
		}
		return nil
	case mask == 0:
		return nil
	case watched:
		b.masks[fd] = mask
		if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
			return fmt.Errorf("epoll ctl mod: %w", err)
		}
		return nil
	default:
		b.masks[fd] = mask
		if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			delete(b.masks, fd)
			return fmt.Errorf("epoll ctl add: %w", err)
		}
		return nil
	}
}

// Wait blocks until readiness or timeout and fills out.
func (b *epollBackend) Wait(out []api.Readiness, timeout time.Duration) (int, error) {
	if b.closed {
		return 0, api.ErrBackendClosed
	}
	if len(b.events) < len(out) {
		b.events = make([]unix.EpollEvent, len(out))
	}
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
		if msec == 0 && timeout > 0 {
			msec = 1
		}
	}
	n, err := unix.EpollWait(b.epfd, b.events[:len(out)], msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := b.events[i]
		var mask api.EventMask
		if ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
			mask |= api.ReadReady
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			mask |= api.WriteReady
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			mask |= api.ErrorReady
		}
		out[i] = api.Readiness{FD: int(ev.Fd), Mask: mask}
	}
	return n, nil
}

// Close releases the epoll instance.
func (b *epollBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return unix.Close(b.epfd)
}
