// Package vm executes a bytecode.Chunk (spec §4.10 "VM"): a stack machine
// with a fixed locals array, a call-return stack of saved instruction
// pointers, fuel-bounded dispatch, and capability-gated side-effecting ops.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/w4ffl35/curlee/internal/bytecode"
)

// PythonRunner performs one handshake exchange with an external process
// implementing the line-JSON protocol (spec §6 "Python runner protocol").
// The `internal/pyrunner` package provides the concrete client; the VM only
// depends on this narrow interface so it never imports process/transport
// code directly.
type PythonRunner interface {
	Handshake() (string, error)
}

// VM executes chunks. Constructed with an immutable capability set (spec
// §4.10 "Capabilities"); capability-gated opcodes check membership before
// any side effect.
type VM struct {
	capabilities map[string]bool
	out          io.Writer
	python       PythonRunner
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput overrides the writer Print renders to (defaults to os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.out = w }
}

// WithPythonRunner installs the handshake client PythonCall uses.
func WithPythonRunner(r PythonRunner) Option {
	return func(v *VM) { v.python = r }
}

// New builds a VM with the given capability strings (e.g. "io:stdout",
// "python:ffi").
func New(capabilities []string, opts ...Option) *VM {
	v := &VM{
		capabilities: make(map[string]bool, len(capabilities)),
		out:          os.Stdout,
	}
	for _, c := range capabilities {
		v.capabilities[c] = true
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VM) hasCapability(name string) bool { return v.capabilities[name] }

// Run executes chunk until Return (success, value is top-of-stack), a typed
// RuntimeError, or fuel exhaustion. Every dispatched instruction decrements
// fuel by one; fuel of 0 at entry is immediately "out of fuel" (spec §4.10).
func (v *VM) Run(chunk *bytecode.Chunk, fuel int) (bytecode.Value, error) {
	if fuel <= 0 {
		return bytecode.Unit(), errAt(chunk, 0, "out of fuel")
	}

	stack := make([]bytecode.Value, 0, 64)
	locals := make([]bytecode.Value, chunk.MaxLocals)
	for i := range locals {
		locals[i] = bytecode.Unit()
	}
	callStack := make([]int, 0, 64)
	ip := 0

	for {
		if ip >= len(chunk.Code) {
			return bytecode.Unit(), errAt(chunk, ip, "no return: control fell off the end of the chunk")
		}
		if fuel <= 0 {
			return bytecode.Unit(), errAt(chunk, ip, "out of fuel")
		}
		fuel--

		opIndex := ip
		op := bytecode.OpCode(chunk.Code[ip])
		ip++

		var err error
		stack, locals, callStack, ip, err = v.step(chunk, op, opIndex, ip, stack, locals, callStack)
		if err != nil {
			return bytecode.Unit(), err
		}
		if done, result := v.halted(op, stack); done {
			return result, nil
		}
	}
}

// halted reports whether op just terminated the run, and if so, the value
// to return. Return's result was already pushed by step for uniformity with
// every other op, so halted pops it back off.
func (v *VM) halted(op bytecode.OpCode, stack []bytecode.Value) (bool, bytecode.Value) {
	if op != bytecode.OpReturn {
		return false, bytecode.Unit()
	}
	return true, stack[len(stack)-1]
}

func (v *VM) readU16(chunk *bytecode.Chunk, ip int) (uint16, int, error) {
	if ip+1 >= len(chunk.Code) {
		return 0, ip, errAt(chunk, ip, "truncated instruction operand")
	}
	return chunk.ReadU16(ip), ip + 2, nil
}

func pop(chunk *bytecode.Chunk, opIndex int, stack []bytecode.Value) (bytecode.Value, []bytecode.Value, error) {
	if len(stack) == 0 {
		return bytecode.Value{}, stack, errAt(chunk, opIndex, "stack underflow")
	}
	n := len(stack) - 1
	return stack[n], stack[:n], nil
}

func typeError(chunk *bytecode.Chunk, opIndex int, op bytecode.OpCode, a, b bytecode.Value) error {
	return errAt(chunk, opIndex, fmt.Sprintf("type error: %s does not support operands of kind %s and %s", op, a.TypeName(), b.TypeName()))
}
