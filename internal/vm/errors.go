package vm

import (
	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/source"
)

// RuntimeError is a typed VM failure (spec §4.10): a message plus the span
// of the faulting opcode, resolved via chunk.spans[op_index] when in range.
type RuntimeError struct {
	Message string
	Span    source.Span
	HasSpan bool
}

func (e *RuntimeError) Error() string { return e.Message }

func errAt(chunk *bytecode.Chunk, opIndex int, message string) *RuntimeError {
	if opIndex >= 0 && opIndex < len(chunk.Spans) {
		return &RuntimeError{Message: message, Span: chunk.Spans[opIndex], HasSpan: true}
	}
	return &RuntimeError{Message: message}
}
