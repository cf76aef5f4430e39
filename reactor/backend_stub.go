//go:build !unix
// +build !unix

// File: reactor/backend_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-ev/api"
)

// NewBackend returns an error for unsupported platforms.
func NewBackend() (api.Backend, error) {
	return nil, fmt.Errorf("reactor: this platform is not supported: %w", api.ErrNotSupported)
}
