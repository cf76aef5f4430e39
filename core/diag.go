// File: core/diag.go
// Package core diagnostic output.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package core

import (
	"io"
	"log"
	"os"
)

// diag carries best-effort diagnostics such as leaked-event reports.
// One line per report, no prefix.
var diag = log.New(os.Stderr, "", 0)

// SetDiagnosticOutput redirects diagnostic output. Tests use this to
// capture leak reports.
func SetDiagnosticOutput(w io.Writer) { diag.SetOutput(w) }
