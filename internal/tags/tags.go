// Package tags extracts #tags from markdown note bodies.
//
// Tags inside fenced code blocks and inline code spans are ignored. Tag text is
// compared case-sensitively; callers that want case folding do it themselves.
package tags

import (
	"strings"

	"github.com/ahazxm/markdown-notes/internal/refs"
)

// Extract returns the distinct tags in a markdown body, in order of first appearance.
func Extract(body string) []string {
	var out []string
	seen := make(map[string]struct{})

	var fence FenceState
	for _, line := range strings.Split(body, "\n") {
		if fence.Update(line) || fence.InFence {
			continue
		}
		for _, m := range refs.FindTags(BlankInlineCode(line)) {
			if _, ok := seen[m.Text]; ok {
				continue
			}
			seen[m.Text] = struct{}{}
			out = append(out, m.Text)
		}
	}

	return out
}

// Normalize strips a leading '#' and surrounding whitespace from user input like "#project".
func Normalize(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// Merge appends the tags from extra that are not already in base.
func Merge(base []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, t := range base {
		seen[t] = struct{}{}
	}
	for _, t := range extra {
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		base = append(base, t)
	}
	return base
}

// FenceState tracks whether a line scan is inside a fenced code block.
type FenceState struct {
	InFence  bool
	fenceCh  byte
	fenceLen int
}

// Update feeds one line to the state. It returns true if the line opens or closes a fence.
func (fs *FenceState) Update(line string) bool {
	s := strings.TrimLeft(line, " \t")
	for strings.HasPrefix(s, ">") {
		s = strings.TrimLeft(strings.TrimPrefix(s, ">"), " \t")
	}

	ch, n, ok := parseFenceMarker(s)
	if !ok {
		return false
	}

	if !fs.InFence {
		fs.InFence = true
		fs.fenceCh = ch
		fs.fenceLen = n
		return true
	}
	if ch == fs.fenceCh && n >= fs.fenceLen {
		*fs = FenceState{}
		return true
	}
	return false
}

func parseFenceMarker(s string) (ch byte, n int, ok bool) {
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return 0, 0, false
	}
	ch = s[0]
	for n < len(s) && s[n] == ch {
		n++
	}
	return ch, n, n >= 3
}

// BlankInlineCode replaces inline code spans with spaces, keeping byte offsets stable.
// An unmatched run of backticks is left as-is.
func BlankInlineCode(line string) string {
	if strings.IndexByte(line, '`') < 0 {
		return line
	}

	b := []byte(line)
	i := 0
	for i < len(b) {
		if b[i] != '`' {
			i++
			continue
		}

		start := i
		for i < len(b) && b[i] == '`' {
			i++
		}
		openLen := i - start

		closeEnd := -1
		for j := i; j < len(b); {
			if b[j] != '`' {
				j++
				continue
			}
			k := j
			for k < len(b) && b[k] == '`' {
				k++
			}
			if k-j == openLen {
				closeEnd = k
				break
			}
			j = k
		}
		if closeEnd < 0 {
			continue
		}

		for k := start; k < closeEnd; k++ {
			b[k] = ' '
		}
		i = closeEnd
	}

	return string(b)
}
