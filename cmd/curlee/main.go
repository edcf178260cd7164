// Command curlee is the Curlee compiler/verifier/VM front end (spec §6
// "CLI"), grounded on the teacher's pkg/cli/entry.go subcommand-dispatch
// shape (a flat switch over the first argument, each branch calling its own
// handler and returning a bool/exit code) adapted to Curlee's much smaller
// command set.
package main

import (
	"fmt"
	"os"
)

const usage = `curlee <command> [flags] [args]

Commands:
  lex FILE
  parse FILE
  check FILE
  fmt --check FILE | fmt --write FILE
  run [--cap NAME]* [--fuel N] [--bundle PATH] FILE
  bundle verify PATH | bundle info PATH
  version
  help
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches argv to a subcommand and returns the process exit code
// (spec §6: 0 success, 1 execution/verification error, 2 usage error).
func run(argv []string) int {
	if len(argv) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cmd, rest := argv[0], argv[1:]
	switch cmd {
	case "lex":
		return cmdLex(rest)
	case "parse":
		return cmdParse(rest)
	case "check":
		return cmdCheck(rest)
	case "fmt":
		return cmdFmt(rest)
	case "run":
		return cmdRun(rest)
	case "bundle":
		return cmdBundle(rest)
	case "version":
		fmt.Println("curlee 0.1.0")
		return 0
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "usage error: unknown command '%s'\n\n%s", cmd, usage)
		return 2
	}
}
