package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/bundle"
	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/config"
	"github.com/w4ffl35/curlee/internal/modules"
	"github.com/w4ffl35/curlee/internal/pyrunner"
	"github.com/w4ffl35/curlee/internal/vm"
)

// pyrunnerCommand is the executable curlee spawns to service python_ffi
// calls. It is looked up on PATH lazily, only when the program being run
// actually declares the "python:ffi" capability.
const pyrunnerCommand = "curlee-pyrunner"

// cmdRun implements `run [--cap NAME]* [--fuel N] [--bundle PATH] FILE`
// (spec §6, §8 scenario 1: stdout `curlee run: result N\n`, exit 0 on
// success).
func cmdRun(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %s\n", err)
		return 2
	}

	var chunk *bytecode.Chunk
	caps := flags.caps

	if flags.bundlePath != "" {
		b, c, err := runFromBundle(flags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return 1
		}
		chunk = c
		caps = append(caps, b.Manifest.Capabilities...)
	} else {
		src, ok := readSource(flags.file)
		if !ok {
			return 2
		}
		cfg, err := loadConfigFor(flags.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "usage error: %s\n", err)
			return 2
		}
		caps = append(caps, cfg.DefaultCapabilities...)

		res, diags := compile(flags.file, cfg.ModuleRoots, nil)
		if len(diags) > 0 {
			printDiagnostics(flags.file, src, diags)
			return 1
		}
		chunk = res.chunk

		fuel := cfg.FuelOrDefault()
		if flags.fuel != nil {
			fuel = *flags.fuel
		}
		return execute(chunk, caps, fuel)
	}

	fuel := config.DefaultFuel
	if flags.fuel != nil {
		fuel = *flags.fuel
	}
	return execute(chunk, caps, fuel)
}

// runFromBundle decodes a bundle and verifies its pinned imports against
// the entry module's own transitive imports (spec §4.3 "bundle-mode pin
// verification", §8 scenario 6).
func runFromBundle(flags runFlags) (*bundle.Bundle, *bytecode.Chunk, error) {
	b, chunk, err := loadBundle(flags.bundlePath)
	if err != nil {
		return nil, nil, err
	}

	pins := modules.Pins{}
	for _, p := range b.Manifest.Imports {
		pins[p.Path] = p.Hash
	}
	cfg, err := loadConfigFor(flags.file)
	if err != nil {
		return nil, nil, err
	}
	if _, diags := loadAndMerge(flags.file, cfg.ModuleRoots, pins); len(diags) > 0 {
		return nil, nil, fmt.Errorf("%s", diags[0].Message)
	}
	return b, chunk, nil
}

// execute runs chunk on a fresh VM, wiring a lazily-started python runner
// only when the "python:ffi" capability is present.
func execute(chunk *bytecode.Chunk, caps []string, fuel int) int {
	opts := []vm.Option{}

	needsPython := false
	for _, c := range caps {
		if c == "python:ffi" {
			needsPython = true
			break
		}
	}
	if needsPython {
		if client, err := pyrunner.Start(pyrunnerCommand); err == nil {
			defer client.Close()
			opts = append(opts, vm.WithPythonRunner(client))
		}
	}

	machine := vm.New(caps, opts...)
	result, err := machine.Run(chunk, fuel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	fmt.Printf("curlee run: result %s\n", result)
	return 0
}
