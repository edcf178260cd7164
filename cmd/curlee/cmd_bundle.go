package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/bundle"
	"github.com/w4ffl35/curlee/internal/bytecode"
)

// cmdBundle implements `bundle verify PATH | bundle info PATH` (spec §6).
// Both subcommands decode and hash-validate the bundle (internal/bundle.Read
// already performs this); `info` additionally prints the manifest and a
// disassembly of its bytecode.
func cmdBundle(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: curlee bundle verify PATH | bundle info PATH")
		return 2
	}
	sub, path := args[0], args[1]

	b, chunk, err := loadBundle(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	switch sub {
	case "verify":
		fmt.Println("curlee bundle: ok")
		return 0
	case "info":
		printBundleInfo(b.Manifest, chunk)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "usage error: unrecognized bundle subcommand '%s'\n", sub)
		return 2
	}
}

func printBundleInfo(m bundle.Manifest, chunk *bytecode.Chunk) {
	fmt.Printf("format_version: %d\n", m.FormatVersion)
	fmt.Printf("bytecode_hash: %s\n", m.BytecodeHash)
	if m.ManifestHash != "" {
		fmt.Printf("manifest_hash: %s\n", m.ManifestHash)
	}
	fmt.Printf("capabilities: %v\n", m.Capabilities)
	for _, p := range m.Imports {
		fmt.Printf("import: %s:%s\n", p.Path, p.Hash)
	}
	if m.Proof != "" {
		fmt.Printf("proof: %s\n", m.Proof)
	}
	fmt.Print(bytecode.Disassemble(chunk, "bundle"))
}
