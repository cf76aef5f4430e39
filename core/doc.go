// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package core implements the single-threaded cooperative event engine:
// shared single-shot events, rendezvous completion queues, the ASAP and
// timer scheduling sets, and the driver loop that pumps them against an
// api.Backend readiness source.
//
// All state in this package is owned by one driver goroutine. Operations
// never block except the backend wait inside a driver tick.
package core
