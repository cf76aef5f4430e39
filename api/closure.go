// File: api/closure.go
// Package api defines the Closure contract for cooperative waiters.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Closure is a suspended computation registered on a rendezvous. The
// driver runs it at most once per completion that arrives while it is
// blocked; the closure re-blocks itself if it needs to wait again.
type Closure interface {
	Run()
}

// ClosureFunc adapts a plain function to the Closure interface.
type ClosureFunc func()

// Run implements Closure.
func (f ClosureFunc) Run() { f() }
