package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/cliutil"
	"github.com/w4ffl35/curlee/internal/source"
)

// printDiagnostics renders each diagnostic against path's line map (spec §7
// "User-visible format"), colorizing by severity when stderr is a terminal.
func printDiagnostics(path string, src string, diags []source.Diagnostic) {
	lm := source.NewLineMap(src)
	colorOn := cliutil.ColorEnabled(os.Stderr)
	for _, d := range diags {
		rendered := d.Render(path, lm)
		code := cliutil.ColorForSeverity(d.Severity.String())
		fmt.Fprintln(os.Stderr, cliutil.Colorize(colorOn, code, rendered))
	}
}

// readSource reads path, reporting a usage-level failure if it can't.
func readSource(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %s\n", err)
		return "", false
	}
	return string(data), true
}
