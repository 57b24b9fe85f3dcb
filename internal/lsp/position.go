package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// OffsetAt converts an LSP position (zero-based line, UTF-16 code units) to a
// byte offset in text. Positions past the end of a line clamp to the line end;
// lines past the end of text clamp to len(text).
func OffsetAt(text string, pos Position) int {
	if pos.Line < 0 {
		return 0
	}

	offset := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	units := 0
	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		units += utf16Len(r)
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset in text to an LSP position.
func PositionAt(text string, offset int) Position {
	offset = max(0, min(offset, len(text)))

	var pos Position
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			break
		}
		if r == '\n' {
			pos.Line++
			pos.Character = 0
		} else {
			pos.Character += utf16Len(r)
		}
		i += size
	}
	return pos
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
