// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package facade is the typed surface over the core engine: slot-carrying
// event handles, identifier-carrying rendezvous flavors, and the
// distribute/timeout/signal combinators.
//
// A facade handle owns one reference to its underlying occurrence.
// Copying a handle with Share acquires another reference; Drop releases
// one. Dropping the last reference to an occurrence that has not been
// triggered cancels it: the occurrence fires without writing slots and
// a leak diagnostic is emitted unless the rendezvous is volatile.
package facade
