// Package refs classifies the reference token under the cursor.
//
// Two token kinds are recognized:
//
//	#tag        tag text is letters, digits, '_', '-' and '/'
//	[[target]]  wiki link; the target ends at ']', '[', '|', '#' or end of line
//
// Tokens never span lines. All offsets are byte offsets into the text and all
// spans are half-open.
package refs

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the kind of reference token under the cursor.
type Kind int

const (
	// None means the cursor is not inside a recognized token.
	None Kind = iota
	// Tag is a #tag token.
	Tag
	// WikiLink is a [[wiki link]] token.
	WikiLink
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Tag:
		return "tag"
	case WikiLink:
		return "wikilink"
	}
	return "unknown"
}

// Span is a half-open range of byte offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Slice returns the part of text covered by the span.
func (s Span) Slice(text string) string {
	if s.Start < 0 || s.End > len(text) || s.Start > s.End {
		return ""
	}
	return text[s.Start:s.End]
}

func (s Span) shift(by int) Span {
	return Span{Start: s.Start + by, End: s.End + by}
}

// Match is the result of classifying a cursor position.
type Match struct {
	Kind Kind

	// Range is the text a completion replaces: the tag text after '#',
	// or the link target between "[[" and its terminator.
	Range Span

	// Token covers the whole token including its delimiters.
	Token Span

	// Text is the current content of Range.
	Text string
}

// IsNone reports whether the match is the empty classification.
func (m Match) IsNone() bool {
	return m.Kind == None
}

func (m Match) shift(by int) Match {
	m.Range = m.Range.shift(by)
	m.Token = m.Token.shift(by)
	return m
}

const linkTerminators = "][|#"

// FindLinks returns every wiki link token in a single line.
//
// An opener preceded or followed by a third '[' is skipped (array syntax like [[[ref]]]).
// Unclosed links run to the first terminator or the end of the line.
func FindLinks(line string) []Match {
	var out []Match

	i := 0
	for i+1 < len(line) {
		if line[i] != '[' || line[i+1] != '[' {
			i++
			continue
		}
		if (i > 0 && line[i-1] == '[') || (i+2 < len(line) && line[i+2] == '[') {
			i++
			continue
		}

		innerStart := i + 2
		innerEnd := innerStart
		for innerEnd < len(line) && strings.IndexByte(linkTerminators, line[innerEnd]) < 0 {
			innerEnd++
		}

		tokenEnd := innerEnd
		if rest := line[innerEnd:]; strings.HasPrefix(rest, "]]") {
			tokenEnd = innerEnd + 2
		} else if len(rest) > 0 && (rest[0] == '|' || rest[0] == '#') {
			// [[target|display]] and [[target#heading]] close at the next "]]"
			// unless another link opens first.
			closeAt := strings.Index(rest, "]]")
			openAt := strings.Index(rest, "[[")
			if closeAt >= 0 && (openAt < 0 || closeAt < openAt) {
				tokenEnd = innerEnd + closeAt + 2
			}
		}

		out = append(out, Match{
			Kind:  WikiLink,
			Range: Span{Start: innerStart, End: innerEnd},
			Token: Span{Start: i, End: tokenEnd},
			Text:  line[innerStart:innerEnd],
		})
		i = max(tokenEnd, innerStart)
	}

	return out
}

// FindTags returns every #tag token in a single line that is not part of a wiki link.
func FindTags(line string) []Match {
	links := FindLinks(line)

	var out []Match
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(line[:i])
			if !isTagBoundary(prev) {
				continue
			}
		}
		if insideAny(links, i) {
			continue
		}

		j := i + 1
		for j < len(line) {
			r, size := utf8.DecodeRuneInString(line[j:])
			if !IsTagRune(r) {
				break
			}
			j += size
		}
		if j == i+1 {
			continue
		}

		out = append(out, Match{
			Kind:  Tag,
			Range: Span{Start: i + 1, End: j},
			Token: Span{Start: i, End: j},
			Text:  line[i+1 : j],
		})
		i = j - 1
	}

	return out
}

// IsTagRune reports whether r may appear in tag text.
func IsTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '/'
}

func isTagBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ','
}

func insideAny(matches []Match, offset int) bool {
	for _, m := range matches {
		if m.Token.Start <= offset && offset < m.Token.End {
			return true
		}
	}
	return false
}

// Classify determines which reference token, if any, contains offset.
//
// Boundary rules:
//   - a wiki link contains every offset from just after "[[" to just before its
//     terminator, inclusive; offsets before "[[" or after "]]" are outside.
//   - a tag contains every offset from just after '#' to just after its last rune;
//     the offset of the '#' itself is outside. A '#' with no tag text yet is an
//     empty tag unless a space or another '#' follows it.
//
// Links are checked before tags.
func Classify(text string, offset int) Match {
	if offset < 0 || offset > len(text) {
		return Match{}
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		lineEnd = offset + i
	}
	line := strings.TrimSuffix(text[lineStart:lineEnd], "\r")
	col := offset - lineStart
	if col > len(line) {
		return Match{}
	}

	for _, m := range FindLinks(line) {
		if m.Range.Start <= col && col <= m.Range.End {
			return m.shift(lineStart)
		}
	}
	for _, m := range FindTags(line) {
		if m.Token.Start < col && col <= m.Range.End {
			return m.shift(lineStart)
		}
	}
	if m, ok := emptyTagAt(line, col); ok {
		return m.shift(lineStart)
	}

	return Match{}
}

// emptyTagAt matches a '#' just before col that starts a tag with no text yet.
// A '#' followed by a space or another '#' is a heading marker, not a tag.
func emptyTagAt(line string, col int) (Match, bool) {
	hash := col - 1
	if hash < 0 || line[hash] != '#' {
		return Match{}, false
	}
	if hash > 0 {
		prev, _ := utf8.DecodeLastRuneInString(line[:hash])
		if !isTagBoundary(prev) {
			return Match{}, false
		}
	}
	if col < len(line) {
		if next := line[col]; next == ' ' || next == '\t' || next == '#' {
			return Match{}, false
		}
	}
	if insideAny(FindLinks(line), hash) {
		return Match{}, false
	}

	return Match{
		Kind:  Tag,
		Range: Span{Start: col, End: col},
		Token: Span{Start: hash, End: col},
	}, true
}
