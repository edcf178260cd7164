package codec

import (
	"testing"

	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/source"
)

func sampleChunk() *bytecode.Chunk {
	c := bytecode.NewChunk()
	sp := source.Span{Start: 1, End: 2}
	idx := c.AddConstant(bytecode.Int(42))
	c.WriteOp(bytecode.OpConstant, sp)
	c.WriteU16(uint16(idx), sp)
	c.AddConstant(bytecode.Bool(true))
	c.AddConstant(bytecode.String("hi"))
	c.AddConstant(bytecode.Unit())
	c.WriteOp(bytecode.OpReturn, sp)
	c.MaxLocals = 3
	return c
}

func TestEncodeDecodeRoundTripV1(t *testing.T) {
	c := sampleChunk()
	data, err := Encode(c, V1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertChunksEqual(t, c, got)
}

func TestEncodeDecodeRoundTripV2(t *testing.T) {
	c := sampleChunk()
	data, err := Encode(c, V2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertChunksEqual(t, c, got)
}

func assertChunksEqual(t *testing.T, want, got *bytecode.Chunk) {
	t.Helper()
	if got.MaxLocals != want.MaxLocals {
		t.Fatalf("MaxLocals: want %d got %d", want.MaxLocals, got.MaxLocals)
	}
	if len(got.Code) != len(want.Code) {
		t.Fatalf("code length mismatch")
	}
	for i := range want.Code {
		if got.Code[i] != want.Code[i] {
			t.Fatalf("code[%d]: want %d got %d", i, want.Code[i], got.Code[i])
		}
	}
	if len(got.Spans) != len(want.Spans) {
		t.Fatalf("spans length mismatch")
	}
	for i := range want.Spans {
		if got.Spans[i] != want.Spans[i] {
			t.Fatalf("span[%d] mismatch: want %+v got %+v", i, want.Spans[i], got.Spans[i])
		}
	}
	if len(got.Constants) != len(want.Constants) {
		t.Fatalf("constants length mismatch")
	}
	for i := range want.Constants {
		if got.Constants[i] != want.Constants[i] {
			t.Fatalf("constant[%d] mismatch: want %+v got %+v", i, want.Constants[i], got.Constants[i])
		}
	}
}

func TestDecodeInvalidHeader(t *testing.T) {
	_, err := Decode([]byte("not a chunk at all"))
	if err == nil || err.Error() != "invalid chunk header" {
		t.Fatalf("expected 'invalid chunk header', got %v", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data, _ := Encode(sampleChunk(), V1)
	data[len(Magic)] = 99 // corrupt the version field
	_, err := Decode(data)
	if err == nil || err.Error() != "unsupported chunk version" {
		t.Fatalf("expected 'unsupported chunk version', got %v", err)
	}
}

func TestDecodeTruncatedCodeLength(t *testing.T) {
	data, _ := Encode(sampleChunk(), V1)
	truncated := data[:len(Magic)+4+4+3] // past version+max_locals, into code_len
	_, err := Decode(truncated)
	if err == nil || err.Error() != "truncated code length" {
		t.Fatalf("expected 'truncated code length', got %v", err)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data, _ := Encode(sampleChunk(), V1)
	data = append(data, 0xFF)
	_, err := Decode(data)
	if err == nil || err.Error() != "trailing bytes after chunk" {
		t.Fatalf("expected 'trailing bytes after chunk', got %v", err)
	}
}

func TestDecodeUnknownConstantTag(t *testing.T) {
	c := bytecode.NewChunk()
	c.AddConstant(bytecode.Int(1))
	data, _ := Encode(c, V1)
	// Flip the single constant's tag byte (first byte of the constants
	// section) to an unused value.
	tagOffset := len(data) - 9 // 1 tag byte + 8 payload bytes for an Int
	data[tagOffset] = 0xEE
	_, err := Decode(data)
	if err == nil || err.Error() != "unknown constant kind" {
		t.Fatalf("expected 'unknown constant kind', got %v", err)
	}
}

func TestEncodeUnsupportedVersion(t *testing.T) {
	_, err := Encode(sampleChunk(), Version(7))
	if err == nil {
		t.Fatalf("expected an error for an unsupported version")
	}
}
