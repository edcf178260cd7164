// Package codec encodes and decodes Curlee bytecode Chunks to the versioned
// binary wire format (spec §4.9 "Chunk codec").
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/source"
)

// Magic is the fixed 12-byte header every chunk file starts with.
const Magic = "CURLEE_CHUNK"

// Version selects the width of every size/index field in the wire format.
type Version uint32

const (
	V1 Version = 1 // sizes and indices are u32
	V2 Version = 2 // sizes and indices are u64
)

const (
	tagInt ValueTag = iota
	tagBool
	tagString
	tagUnit
)

// ValueTag is the u8 discriminant in front of each encoded constant.
type ValueTag uint8

// Encode serializes chunk using the given wire version.
func Encode(chunk *bytecode.Chunk, version Version) ([]byte, error) {
	if version != V1 && version != V2 {
		return nil, fmt.Errorf("unsupported version: %d", version)
	}
	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeU32(&buf, uint32(version))

	writeSize(&buf, version, uint64(chunk.MaxLocals))

	writeSize(&buf, version, uint64(len(chunk.Code)))
	buf.Write(chunk.Code)

	writeSize(&buf, version, uint64(len(chunk.Spans)))
	for _, sp := range chunk.Spans {
		writeSize(&buf, version, uint64(sp.Start))
		writeSize(&buf, version, uint64(sp.End))
	}

	writeSize(&buf, version, uint64(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		if err := encodeValue(&buf, c); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v bytecode.Value) error {
	switch v.Kind {
	case bytecode.KindInt:
		buf.WriteByte(byte(tagInt))
		writeU64(buf, uint64(v.I))
	case bytecode.KindBool:
		buf.WriteByte(byte(tagBool))
		if v.B {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case bytecode.KindString:
		buf.WriteByte(byte(tagString))
		writeU64(buf, uint64(len(v.S)))
		buf.WriteString(v.S)
	case bytecode.KindUnit:
		buf.WriteByte(byte(tagUnit))
	default:
		return fmt.Errorf("cannot encode value of unknown kind")
	}
	return nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeSize(buf *bytes.Buffer, version Version, v uint64) {
	if version == V1 {
		writeU32(buf, uint32(v))
	} else {
		writeU64(buf, v)
	}
}

// decoder reads sequentially from a byte slice, tracking position so every
// read can be bounds-checked before it happens (spec §4.9 "Decoder
// invariants": fixed error strings, no trailing bytes).
type decoder struct {
	data    []byte
	pos     int
	version Version
}

var (
	errInvalidHeader     = errors.New("invalid chunk header")
	errUnsupportedVersion = errors.New("unsupported chunk version")
	errTruncatedMaxLocals = errors.New("truncated max_locals")
	errTruncatedCodeLen   = errors.New("truncated code length")
	errTruncatedCode      = errors.New("truncated code")
	errTruncatedSpansLen  = errors.New("truncated spans length")
	errTruncatedSpans     = errors.New("truncated spans")
	errSpansCodeMismatch  = errors.New("spans length does not match code length")
	errTruncatedConstsLen = errors.New("truncated constants length")
	errTruncatedConstTag  = errors.New("truncated constant tag")
	errUnknownConstantTag = errors.New("unknown constant kind")
	errMalformedBool      = errors.New("malformed boolean constant")
	errTruncatedConstant  = errors.New("truncated constant payload")
	errTrailingBytes      = errors.New("trailing bytes after chunk")
	errSizeOverflow       = errors.New("length field overflows host size")
)

// Decode parses a wire-format chunk, validating every invariant spec §4.9
// names before returning.
func Decode(data []byte) (*bytecode.Chunk, error) {
	d := &decoder{data: data}

	if len(data) < len(Magic)+4 || string(data[:len(Magic)]) != Magic {
		return nil, errInvalidHeader
	}
	d.pos = len(Magic)

	ver := binary.LittleEndian.Uint32(data[d.pos : d.pos+4])
	d.pos += 4
	switch Version(ver) {
	case V1, V2:
		d.version = Version(ver)
	default:
		return nil, errUnsupportedVersion
	}

	maxLocals, err := d.readSize(errTruncatedMaxLocals)
	if err != nil {
		return nil, err
	}

	codeLen, err := d.readSize(errTruncatedCodeLen)
	if err != nil {
		return nil, err
	}
	if codeLen > uint64(^uint(0)>>1) {
		return nil, errSizeOverflow
	}
	code, err := d.readBytes(int(codeLen), errTruncatedCode)
	if err != nil {
		return nil, err
	}

	spansLen, err := d.readSize(errTruncatedSpansLen)
	if err != nil {
		return nil, err
	}
	if spansLen != codeLen {
		return nil, errSpansCodeMismatch
	}
	spans := make([]source.Span, 0, spansLen)
	for i := uint64(0); i < spansLen; i++ {
		start, err := d.readSize(errTruncatedSpans)
		if err != nil {
			return nil, err
		}
		end, err := d.readSize(errTruncatedSpans)
		if err != nil {
			return nil, err
		}
		spans = append(spans, source.Span{Start: int(start), End: int(end)})
	}

	constsLen, err := d.readSize(errTruncatedConstsLen)
	if err != nil {
		return nil, err
	}
	constants := make([]bytecode.Value, 0, constsLen)
	for i := uint64(0); i < constsLen; i++ {
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		constants = append(constants, v)
	}

	if d.pos != len(d.data) {
		return nil, errTrailingBytes
	}

	return &bytecode.Chunk{
		Code:      code,
		Spans:     spans,
		Constants: constants,
		MaxLocals: int(maxLocals),
	}, nil
}

func (d *decoder) readSize(onTruncated error) (uint64, error) {
	width := 4
	if d.version == V2 {
		width = 8
	}
	if d.pos+width > len(d.data) {
		return 0, onTruncated
	}
	var v uint64
	if width == 4 {
		v = uint64(binary.LittleEndian.Uint32(d.data[d.pos : d.pos+4]))
	} else {
		v = binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8])
	}
	d.pos += width
	return v, nil
}

func (d *decoder) readBytes(n int, onTruncated error) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, onTruncated
	}
	b := make([]byte, n)
	copy(b, d.data[d.pos:d.pos+n])
	d.pos += n
	return b, nil
}

func (d *decoder) readValue() (bytecode.Value, error) {
	if d.pos+1 > len(d.data) {
		return bytecode.Value{}, errTruncatedConstTag
	}
	tag := ValueTag(d.data[d.pos])
	d.pos++

	switch tag {
	case tagInt:
		if d.pos+8 > len(d.data) {
			return bytecode.Value{}, errTruncatedConstant
		}
		bits := binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8])
		d.pos += 8
		return bytecode.Int(int64(bits)), nil
	case tagBool:
		if d.pos+1 > len(d.data) {
			return bytecode.Value{}, errTruncatedConstant
		}
		b := d.data[d.pos]
		d.pos++
		switch b {
		case 0:
			return bytecode.Bool(false), nil
		case 1:
			return bytecode.Bool(true), nil
		default:
			return bytecode.Value{}, errMalformedBool
		}
	case tagString:
		n, err := d.readSize64(errTruncatedConstant)
		if err != nil {
			return bytecode.Value{}, err
		}
		if n > uint64(^uint(0)>>1) {
			return bytecode.Value{}, errSizeOverflow
		}
		raw, err := d.readBytes(int(n), errTruncatedConstant)
		if err != nil {
			return bytecode.Value{}, err
		}
		return bytecode.String(string(raw)), nil
	case tagUnit:
		return bytecode.Unit(), nil
	default:
		return bytecode.Value{}, errUnknownConstantTag
	}
}

// readSize64 always reads a u64, independent of chunk version — the
// constant payload widths (string length, int bit-pattern) are fixed by
// spec §4.9 regardless of which version encodes the surrounding sizes.
func (d *decoder) readSize64(onTruncated error) (uint64, error) {
	if d.pos+8 > len(d.data) {
		return 0, onTruncated
	}
	v := binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}
