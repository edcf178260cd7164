package main

import (
	"fmt"
	"os"
)

// cmdCheck runs the full static pipeline (module load, resolve, type check,
// verify) and reports success or the first failing pass's diagnostics.
func cmdCheck(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: curlee check FILE")
		return 2
	}
	file := args[0]
	src, ok := readSource(file)
	if !ok {
		return 2
	}

	cfg, err := loadConfigFor(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %s\n", err)
		return 2
	}

	res, diags := frontend(file, cfg.ModuleRoots, nil)
	if len(diags) > 0 {
		printDiagnostics(file, src, diags)
		return 1
	}
	if diags := verify(res.program, res.info); len(diags) > 0 {
		printDiagnostics(file, src, diags)
		return 1
	}
	fmt.Println("curlee check: ok")
	return 0
}
