// control/driver.go
// Author: momentics <momentics@gmail.com>
//
// Builds a configured driver over the platform backend.

package control

import (
	"io"

	"github.com/momentics/hioload-ev/core"
	"github.com/momentics/hioload-ev/reactor"
)

// NewDriver builds a driver from the configuration, using the platform
// readiness backend.
func (c *Config) NewDriver() (*core.Driver, error) {
	backend, err := reactor.NewBackend()
	if err != nil {
		return nil, err
	}
	if c.SuppressLeaks {
		core.SetDiagnosticOutput(io.Discard)
	}
	return core.NewDriver(backend, core.WithReadyBatch(c.ReadyBatch)), nil
}
