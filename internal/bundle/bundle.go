// Package bundle reads and writes Curlee bundle files (spec §4.11): a
// text manifest carrying a base64-encoded Chunk body plus FNV-1a integrity
// hashes and import pins, used for distributing verified programs without
// re-running the pipeline that produced them.
package bundle

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FormatVersion is the only format_version this package writes or accepts.
const FormatVersion = 1

const (
	header       = "CURLEE_BUNDLE"
	headerLegacy = "CURLEE_BUNDLE_V1"
)

// ImportPin pins an imported module's source to the hash it had when the
// bundle was produced (spec §4.3 "bundle-mode pin verification").
type ImportPin struct {
	Path string
	Hash string
}

// Manifest is a bundle's metadata, everything except the bytecode body.
type Manifest struct {
	FormatVersion int
	BytecodeHash  string
	ManifestHash  string // empty if the bundle carries none
	Capabilities  []string
	Imports       []ImportPin
	Proof         string // empty means absent
}

// Bundle is a manifest plus the raw bytecode bytes it describes.
type Bundle struct {
	Manifest Manifest
	Bytecode []byte
}

var (
	errInvalidHeader       = errors.New("invalid bundle header")
	errEmptyBundle         = errors.New("empty bundle")
	errMissingFormatVer    = errors.New("missing bundle format version")
	errInvalidFormatVer    = errors.New("invalid bundle format version")
	errMissingBytecodeHash = errors.New("missing bytecode_hash")
	errMissingBytecode     = errors.New("missing bytecode")
	errInvalidBase64       = errors.New("invalid base64 bytecode")
	errBytecodeHashMismatch = errors.New("bytecode hash mismatch")
	errManifestHashMismatch = errors.New("manifest hash mismatch")
	errInvalidImportPin    = errors.New("invalid import pin")
)

// HashBytes computes the FNV-1a 64-bit hash of bytes, rendered as 16
// lowercase hex digits (spec §4.11 "hashing").
func HashBytes(data []byte) string {
	const (
		offsetBasis uint64 = 0xcbf29ce484222325
		prime       uint64 = 0x100000001b3
	)
	h := offsetBasis
	for _, b := range data {
		h ^= uint64(b)
		h *= prime
	}
	return fmt.Sprintf("%016x", h)
}

func joinPairs(imports []ImportPin) string {
	parts := make([]string, len(imports))
	for i, p := range imports {
		parts[i] = p.Path + ":" + p.Hash
	}
	return strings.Join(parts, ",")
}

func computeManifestHash(m Manifest) string {
	material := "format_version=" + strconv.Itoa(m.FormatVersion) + "\n" +
		"bytecode_hash=" + m.BytecodeHash + "\n" +
		"capabilities=" + strings.Join(m.Capabilities, ",") + "\n" +
		"imports=" + joinPairs(m.Imports) + "\n" +
		"proof=" + m.Proof + "\n"
	return HashBytes([]byte(material))
}

// Write renders bundle as bundle-file text: header line, then key=value
// lines, bytecode_hash and manifest_hash are (re)derived from bytecode and
// the rest of the manifest rather than trusted from the caller.
func Write(b Bundle) string {
	m := b.Manifest
	m.FormatVersion = FormatVersion
	m.BytecodeHash = HashBytes(b.Bytecode)
	manifestHash := computeManifestHash(m)

	var sb strings.Builder
	sb.WriteString(header + "\n")
	sb.WriteString("format_version=" + strconv.Itoa(m.FormatVersion) + "\n")
	sb.WriteString("bytecode_hash=" + m.BytecodeHash + "\n")
	sb.WriteString("manifest_hash=" + manifestHash + "\n")
	sb.WriteString("capabilities=" + strings.Join(m.Capabilities, ",") + "\n")
	sb.WriteString("imports=" + joinPairs(m.Imports) + "\n")
	sb.WriteString("proof=" + m.Proof + "\n")
	sb.WriteString("bytecode=" + base64.StdEncoding.EncodeToString(b.Bytecode) + "\n")
	return sb.String()
}

// Read parses bundle-file text, validating the header, format version,
// bytecode hash, and (when present) the manifest integrity hash.
func Read(text string) (Bundle, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return Bundle{}, errEmptyBundle
	}

	legacy := lines[0] == headerLegacy
	if lines[0] != header && !legacy {
		return Bundle{}, errInvalidHeader
	}

	var m Manifest
	sawFormatVersion := false
	var bytecodeB64, manifestHash string

	if legacy {
		m.FormatVersion = 1
		sawFormatVersion = true
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key, value := line[:eq], line[eq+1:]

		switch key {
		case "format_version", "version":
			v, err := strconv.Atoi(value)
			if err != nil {
				return Bundle{}, errInvalidFormatVer
			}
			m.FormatVersion = v
			sawFormatVersion = true
		case "bytecode_hash":
			m.BytecodeHash = value
		case "manifest_hash":
			manifestHash = value
		case "capabilities":
			m.Capabilities = splitNonEmpty(value, ',')
		case "imports":
			pins, err := parseImports(value)
			if err != nil {
				return Bundle{}, err
			}
			m.Imports = pins
		case "proof":
			m.Proof = value
		case "bytecode":
			bytecodeB64 = value
		}
	}

	if !sawFormatVersion {
		return Bundle{}, errMissingFormatVer
	}
	if m.FormatVersion != FormatVersion {
		return Bundle{}, fmt.Errorf("unsupported bundle format version: %d (supported: %d)", m.FormatVersion, FormatVersion)
	}
	if m.BytecodeHash == "" {
		return Bundle{}, errMissingBytecodeHash
	}
	if bytecodeB64 == "" {
		return Bundle{}, errMissingBytecode
	}

	decoded, err := base64.StdEncoding.DecodeString(stripWhitespace(bytecodeB64))
	if err != nil {
		return Bundle{}, errInvalidBase64
	}

	if HashBytes(decoded) != m.BytecodeHash {
		return Bundle{}, errBytecodeHashMismatch
	}

	if manifestHash != "" {
		m.ManifestHash = manifestHash
		if computeManifestHash(m) != manifestHash {
			return Bundle{}, errManifestHashMismatch
		}
	}

	return Bundle{Manifest: m, Bytecode: decoded}, nil
}

func parseImports(value string) ([]ImportPin, error) {
	entries := splitNonEmpty(value, ',')
	pins := make([]ImportPin, 0, len(entries))
	for _, entry := range entries {
		pos := strings.IndexByte(entry, ':')
		if pos <= 0 || pos+1 >= len(entry) {
			return nil, errInvalidImportPin
		}
		pins = append(pins, ImportPin{Path: entry[:pos], Hash: entry[pos+1:]})
	}
	return pins, nil
}

// splitLines splits on LF, tolerating a trailing CR per line (spec §4.11:
// "UTF-8, LF or CRLF line endings").
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if i == len(raw)-1 && line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func splitNonEmpty(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, string(sep))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
