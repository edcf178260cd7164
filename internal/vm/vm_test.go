package vm

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/source"
)

var zeroSpan = source.Span{}

func TestRunReturnsTopOfStack(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.Int(7))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	got, err := New(nil).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != bytecode.KindInt || got.I != 7 {
		t.Fatalf("expected Int(7), got %+v", got)
	}
}

func TestRunAddIntegers(t *testing.T) {
	c := bytecode.NewChunk()
	a := c.AddConstant(bytecode.Int(3))
	b := c.AddConstant(bytecode.Int(4))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(a), zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(b), zeroSpan)
	c.WriteOp(bytecode.OpAdd, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	got, err := New(nil).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.I != 7 {
		t.Fatalf("expected 7, got %d", got.I)
	}
}

func TestRunStringConcatenation(t *testing.T) {
	c := bytecode.NewChunk()
	a := c.AddConstant(bytecode.String("foo"))
	b := c.AddConstant(bytecode.String("bar"))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(a), zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(b), zeroSpan)
	c.WriteOp(bytecode.OpAdd, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	got, err := New(nil).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.S != "foobar" {
		t.Fatalf("expected 'foobar', got %q", got.S)
	}
}

func TestRunDivisionByZero(t *testing.T) {
	c := bytecode.NewChunk()
	a := c.AddConstant(bytecode.Int(1))
	b := c.AddConstant(bytecode.Int(0))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(a), zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(b), zeroSpan)
	c.WriteOp(bytecode.OpDiv, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero error, got %v", err)
	}
}

func TestRunIntOverflow(t *testing.T) {
	c := bytecode.NewChunk()
	a := c.AddConstant(bytecode.Int(math.MaxInt64))
	b := c.AddConstant(bytecode.Int(1))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(a), zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(b), zeroSpan)
	c.WriteOp(bytecode.OpAdd, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || !strings.Contains(err.Error(), "overflow") {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestRunStackUnderflow(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPop, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || !strings.Contains(err.Error(), "stack underflow") {
		t.Fatalf("expected stack underflow error, got %v", err)
	}
}

func TestRunOutOfFuel(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.Int(1))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 1)
	if err == nil || !strings.Contains(err.Error(), "out of fuel") {
		t.Fatalf("expected out of fuel error, got %v", err)
	}
}

func TestRunNoReturnFallsOffEnd(t *testing.T) {
	c := bytecode.NewChunk()
	_, err := New(nil).Run(c, 100)
	if err == nil || !strings.Contains(err.Error(), "no return") {
		t.Fatalf("expected no-return error, got %v", err)
	}
}

func TestRunPrintRequiresCapability(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.String("hi"))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpPrint, zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || err.Error() != "missing capability io.stdout" {
		t.Fatalf("expected 'missing capability io.stdout', got %v", err)
	}
}

func TestRunPrintWithCapability(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.String("hi"))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpPrint, zeroSpan)
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(idx), zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	var out bytes.Buffer
	_, err := New([]string{"io:stdout"}, WithOutput(&out)).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hi\n" {
		t.Fatalf("expected 'hi\\n', got %q", out.String())
	}
}

// TestRunCallAndRet builds: main (at offset 0, where Run starts) stores 5 in
// local 0 and calls a `double` function placed after it, which doubles
// local 0 and returns.
func TestRunCallAndRet(t *testing.T) {
	c := bytecode.NewChunk()

	// main: Constant(5); StoreLocal 0; Call double; Return
	five := c.AddConstant(bytecode.Int(5))
	c.WriteOp(bytecode.OpConstant, zeroSpan)
	c.WriteU16(uint16(five), zeroSpan)
	c.WriteOp(bytecode.OpStoreLocal, zeroSpan)
	c.WriteU16(0, zeroSpan)
	c.WriteOp(bytecode.OpCall, zeroSpan)
	callOperand := c.Len()
	c.WriteU16(0, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	// double: LoadLocal 0; LoadLocal 0; Add; Ret
	doubleOffset := c.Len()
	c.WriteOp(bytecode.OpLoadLocal, zeroSpan)
	c.WriteU16(0, zeroSpan)
	c.WriteOp(bytecode.OpLoadLocal, zeroSpan)
	c.WriteU16(0, zeroSpan)
	c.WriteOp(bytecode.OpAdd, zeroSpan)
	c.WriteOp(bytecode.OpRet, zeroSpan)

	c.PatchU16(callOperand, uint16(doubleOffset))
	c.MaxLocals = 1

	got, err := New(nil).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.I != 10 {
		t.Fatalf("expected 10, got %d", got.I)
	}
}

func TestRunRetWithEmptyCallStack(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpRet, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || !strings.Contains(err.Error(), "return with empty call stack") {
		t.Fatalf("expected 'return with empty call stack', got %v", err)
	}
}

type fakePythonRunner struct {
	called bool
	err    error
}

func (f *fakePythonRunner) Handshake() (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func TestRunPythonCallRequiresCapability(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPythonCall, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	_, err := New(nil).Run(c, 100)
	if err == nil || err.Error() != "missing capability python.ffi" {
		t.Fatalf("expected 'missing capability python.ffi', got %v", err)
	}
}

func TestRunPythonCallHandshake(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpPythonCall, zeroSpan)
	c.WriteOp(bytecode.OpReturn, zeroSpan)

	runner := &fakePythonRunner{}
	got, err := New([]string{"python:ffi"}, WithPythonRunner(runner)).Run(c, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !runner.called {
		t.Fatalf("expected the handshake to be performed")
	}
	if got.Kind != bytecode.KindUnit {
		t.Fatalf("expected Unit, got %+v", got)
	}
}
