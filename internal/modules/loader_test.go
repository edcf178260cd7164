package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/bundle"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func funcNames(prog *ast.Program) []string {
	var names []string
	for _, it := range prog.Items {
		if fn, ok := it.(*ast.Function); ok {
			names = append(names, fn.Name)
		}
	}
	return names
}

func TestLoadMergesImportedFunctions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math.curlee", `
fn double(n: int) -> int {
  return n + n;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import math;

fn main() -> int {
  return double(4);
}
`)

	l := NewLoader([]string{dir}, nil)
	prog, diags := l.Load(entry)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	names := funcNames(prog)
	if len(names) != 2 {
		t.Fatalf("expected 2 merged functions, got %v", names)
	}
}

func TestLoadDetectsSelfImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.curlee", `
import a;

fn helper() -> int {
  return 1;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import a;

fn main() -> int {
  return helper();
}
`)

	l := NewLoader([]string{dir}, nil)
	_, diags := l.Load(entry)
	if len(diags) == 0 {
		t.Fatalf("expected an import cycle diagnostic")
	}
	found := false
	for _, d := range diags {
		if d.Message == "import cycle detected: 'a.curlee'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'import cycle detected' diagnostic, got %v", diags)
	}
}

func TestLoadRejectsImportedMain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "other.curlee", `
fn main() -> int {
  return 0;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import other;

fn main() -> int {
  return 1;
}
`)

	l := NewLoader([]string{dir}, nil)
	_, diags := l.Load(entry)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for imported module declaring main")
	}
}

func TestLoadRejectsDuplicateFunctionAcrossModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.curlee", `
fn helper() -> int {
  return 1;
}
`)
	writeFile(t, dir, "b.curlee", `
fn helper() -> int {
  return 2;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import a;
import b;

fn main() -> int {
  return helper();
}
`)

	l := NewLoader([]string{dir}, nil)
	_, diags := l.Load(entry)
	if len(diags) == 0 {
		t.Fatalf("expected a duplicate-function-across-modules diagnostic")
	}
	found := false
	for _, d := range diags {
		if d.Message == "duplicate function across modules: 'helper'" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'duplicate function across modules' diagnostic, got %v", diags)
	}
}

func TestLoadBundleModePinMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math.curlee", `
fn double(n: int) -> int {
  return n + n;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import math;

fn main() -> int {
  return double(4);
}
`)

	l := NewLoader([]string{dir}, Pins{"math.curlee": "deadbeefdeadbeef"})
	_, diags := l.Load(entry)
	if len(diags) == 0 || diags[0].Message != "import pin hash mismatch" {
		t.Fatalf("expected 'import pin hash mismatch', got %v", diags)
	}
}

func TestLoadBundleModePinMatches(t *testing.T) {
	dir := t.TempDir()
	mathSrc := "fn double(n: int) -> int {\n  return n + n;\n}\n"
	writeFile(t, dir, "math.curlee", mathSrc)
	entry := writeFile(t, dir, "main.curlee", `
import math;

fn main() -> int {
  return double(4);
}
`)

	pins := Pins{"math.curlee": bundle.HashBytes([]byte(mathSrc))}
	l := NewLoader([]string{dir}, pins)
	_, diags := l.Load(entry)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestLoadBundleModeMissingPin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "math.curlee", `
fn double(n: int) -> int {
  return n + n;
}
`)
	entry := writeFile(t, dir, "main.curlee", `
import math;

fn main() -> int {
  return double(4);
}
`)

	l := NewLoader([]string{dir}, Pins{})
	_, diags := l.Load(entry)
	if len(diags) == 0 || diags[0].Message != "import not pinned: 'math.curlee'" {
		t.Fatalf("expected 'import not pinned', got %v", diags)
	}
}
