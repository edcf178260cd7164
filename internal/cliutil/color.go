// Package cliutil holds small CLI-facing helpers used by cmd/curlee:
// terminal color detection today.
package cliutil

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI codes used to highlight diagnostic severities.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorBold   = "\x1b[1m"
)

// ColorEnabled reports whether w should receive ANSI escapes: only when w is
// backed by a real terminal (checked via isatty, the same way the teacher's
// `evaluator/builtins_term.go` gates its own terminal-only behavior) and the
// user hasn't opted out with NO_COLOR (https://no-color.org).
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Colorize wraps s in code when enabled is true, otherwise returns s as-is.
func Colorize(enabled bool, code, s string) string {
	if !enabled {
		return s
	}
	return code + s + colorReset
}

// ColorForSeverity returns the ANSI code conventionally used for a
// diagnostic severity string ("error", "warning", "note").
func ColorForSeverity(severity string) string {
	switch severity {
	case "error":
		return colorBold + colorRed
	case "warning":
		return colorYellow
	default:
		return ""
	}
}
