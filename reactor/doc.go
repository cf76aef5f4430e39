// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the platform readiness backends consumed by
// the core driver: epoll(7) on Linux, poll(2) on other Unixes, and an
// unsupported stub elsewhere.
package reactor
