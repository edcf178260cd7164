// Command curlee-pyrunner is the out-of-process Python runner stub (spec
// §6 "Python runner protocol"): stdio, one JSON object per line, servicing
// `handshake` and `echo`. It carries no actual Python interpreter — it
// exists so the VM's `python_ffi` intrinsic has a real subprocess on the
// other end of the wire during development and testing.
package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/pyrunner"
)

func main() {
	if err := pyrunner.Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "curlee-pyrunner: %s\n", err)
		os.Exit(2)
	}
	os.Exit(0)
}
