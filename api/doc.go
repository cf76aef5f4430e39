// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the contracts shared by the hioload-ev layers: the
// Backend readiness source consumed by the core driver, the Closure
// resumption contract for cooperative waiters, and common error values.
package api
