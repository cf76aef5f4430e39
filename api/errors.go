// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-ev library.

package api

import "fmt"

// Common errors used across the library.
var (
	// ErrIdle is returned by the driver when no timers, descriptors,
	// signals, or deferred events remain to wait for.
	ErrIdle = fmt.Errorf("driver has no pending work")
	// ErrBackendClosed reports an operation on a closed backend.
	ErrBackendClosed = fmt.Errorf("backend is closed")
	// ErrBadDescriptor reports a negative descriptor.
	ErrBadDescriptor = fmt.Errorf("bad file descriptor")
	// ErrNotSupported reports a backend missing on this platform.
	ErrNotSupported = fmt.Errorf("operation not supported")
)
