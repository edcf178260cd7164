package source

import "sort"

// LineMap answers byte-offset <-> (line, column) queries for one source
// file in O(log n). Lines and columns are both 1-based, matching the LSP
// adapter's own 0-based-to-1-based conversion boundary (cmd/curlee-lsp).
type LineMap struct {
	src         string
	lineStarts  []int // byte offset of the first byte of each line; lineStarts[0] == 0
}

// NewLineMap scans src once and records the offset where each line begins.
func NewLineMap(src string) *LineMap {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{src: src, lineStarts: starts}
}

// LineStartOffset returns the byte offset of the first byte of line (1-based).
func (lm *LineMap) LineStartOffset(line int) int {
	if line < 1 {
		line = 1
	}
	if line > len(lm.lineStarts) {
		return len(lm.src)
	}
	return lm.lineStarts[line-1]
}

// OffsetToLineCol converts a byte offset into a 1-based (line, column) pair.
// Column counts bytes since the start of the line, not runes.
func (lm *LineMap) OffsetToLineCol(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(lm.src) {
		offset = len(lm.src)
	}
	// Largest i such that lineStarts[i] <= offset.
	i := sort.Search(len(lm.lineStarts), func(i int) bool {
		return lm.lineStarts[i] > offset
	})
	line = i // lineStarts index i-1 is 0-based line i-1, i.e. 1-based line i
	if line < 1 {
		line = 1
	}
	col = offset - lm.lineStarts[line-1] + 1
	return line, col
}

// LineCount returns the number of lines in the source (at least 1).
func (lm *LineMap) LineCount() int {
	return len(lm.lineStarts)
}
