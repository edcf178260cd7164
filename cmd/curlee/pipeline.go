package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/bundle"
	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/codec"
	"github.com/w4ffl35/curlee/internal/modules"
	"github.com/w4ffl35/curlee/internal/resolver"
	"github.com/w4ffl35/curlee/internal/smt"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/types"
	"github.com/w4ffl35/curlee/internal/verifier"
)

// pipelineResult carries the artifacts of each pass that completed, so a
// caller that only wants e.g. the merged AST doesn't pay for verification,
// and a caller that wants the chunk (run) gets everything leading up to it.
type pipelineResult struct {
	program *ast.Program
	info    *types.TypeInfo
	chunk   *bytecode.Chunk
}

// loadAndMerge runs the module loader alone, the one pass every command
// below needs. `fmt` does not use it: cmdFmt parses the single file it
// formats without resolving imports.
func loadAndMerge(entryPath string, roots []string, pins modules.Pins) (*ast.Program, []source.Diagnostic) {
	if len(roots) == 0 {
		roots = []string{filepath.Dir(entryPath)}
	}
	loader := modules.NewLoader(roots, pins)
	return loader.Load(entryPath)
}

// frontend runs module loading, name resolution, and type checking — the
// three passes every command past `parse` requires (spec §7 "the first
// pass that produces any diagnostic stops the pipeline").
func frontend(entryPath string, roots []string, pins modules.Pins) (*pipelineResult, []source.Diagnostic) {
	prog, diags := loadAndMerge(entryPath, roots, pins)
	if len(diags) > 0 {
		return nil, diags
	}
	if _, diags := resolver.Resolve(prog); len(diags) > 0 {
		return nil, diags
	}
	info, diags := types.Check(prog)
	if len(diags) > 0 {
		return nil, diags
	}
	return &pipelineResult{program: prog, info: info}, nil
}

// verify runs the verifier over an already-type-checked program using a
// fresh Z3 solver instance, closing it before returning.
func verify(prog *ast.Program, info *types.TypeInfo) []source.Diagnostic {
	solver := smt.NewZ3Solver()
	defer solver.Close()
	return verifier.Verify(solver, info, prog)
}

// compile runs the full frontend, verification, and emission chain,
// producing an executable Chunk.
func compile(entryPath string, roots []string, pins modules.Pins) (*pipelineResult, []source.Diagnostic) {
	res, diags := frontend(entryPath, roots, pins)
	if len(diags) > 0 {
		return nil, diags
	}
	if diags := verify(res.program, res.info); len(diags) > 0 {
		return nil, diags
	}
	chunk, diags := bytecode.Emit(res.program, res.info)
	if len(diags) > 0 {
		return nil, diags
	}
	res.chunk = chunk
	return res, nil
}

// loadBundle reads a bundle file from disk and decodes its chunk.
func loadBundle(path string) (*bundle.Bundle, *bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read bundle '%s': %w", path, err)
	}
	b, err := bundle.Read(string(data))
	if err != nil {
		return nil, nil, err
	}
	chunk, err := codec.Decode(b.Bytecode)
	if err != nil {
		return nil, nil, err
	}
	return &b, chunk, nil
}
