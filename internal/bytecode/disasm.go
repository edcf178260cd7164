package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders chunk as `offset: OPCODE operand` lines under a
// `== name ==` header. Read-only tooling for `curlee bundle info` and
// debugging — it does not change execution semantics, grounded on the
// shape of the teacher's own vm/disasm.go (`Disassemble`/`disassembleInstruction`
// walking a Chunk's Code array one instruction at a time), adapted from
// funxy's line-number-per-instruction display (no span-per-op concept there)
// to this VM's span-per-byte Spans array.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	op := OpCode(chunk.Code[offset])
	if !op.HasOperand() {
		fmt.Fprintf(sb, "%04d: %s\n", offset, op)
		return offset + 1
	}
	if offset+2 >= len(chunk.Code) {
		fmt.Fprintf(sb, "%04d: %s <truncated operand>\n", offset, op)
		return len(chunk.Code)
	}
	operand := chunk.ReadU16(offset + 1)
	fmt.Fprintf(sb, "%04d: %s %d\n", offset, op, operand)
	return offset + 3
}
