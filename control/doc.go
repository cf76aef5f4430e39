// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control holds runtime configuration for hioload-ev drivers:
// defaults, YAML loading, and the configured-driver builder.
package control
