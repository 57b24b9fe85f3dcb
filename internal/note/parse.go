package note

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/ahazxm/markdown-notes/internal/tags"
)

// Parse parses note content. path is recorded on the note and used for the
// fallback title; it is not read.
func Parse(content, path string) (*Note, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	n := &Note{
		Path: path,
		Body: body,
	}

	if fm != nil {
		n.Title = strings.TrimSpace(stringValue(fm["title"]))
		n.Aliases = stringList(fm["aliases"])
		n.Tags = tags.Merge(nil, stringList(fm["tags"])...)
	}
	n.Tags = tags.Merge(n.Tags, tags.Extract(body)...)

	if n.Title == "" {
		n.Title = firstHeading(body)
	}
	if n.Title == "" {
		n.Title = FileStem(path)
	}

	return n, nil
}

// FrontmatterBounds returns the index of the closing '---' line.
// ok is false when the first line is not '---'; end is -1 when the block is unclosed.
func FrontmatterBounds(lines []string) (end int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return -1, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i, true
		}
	}
	return -1, true
}

// splitFrontmatter separates YAML frontmatter from the body.
// Unclosed frontmatter is treated as body text.
func splitFrontmatter(content string) (map[string]interface{}, string, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")

	end, ok := FrontmatterBounds(lines)
	if !ok || end == -1 {
		return nil, content, nil
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &data); err != nil {
		return nil, "", fmt.Errorf("failed to parse frontmatter as YAML: %w", err)
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	return data, strings.Join(lines[end+1:], "\n"), nil
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// stringList accepts a YAML list or a comma/space separated string.
func stringList(v interface{}) []string {
	var out []string
	switch vv := v.(type) {
	case string:
		for _, f := range strings.FieldsFunc(vv, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, f)
		}
	case []interface{}:
		for _, item := range vv {
			if s := strings.TrimSpace(stringValue(item)); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// firstHeading returns the text of the first level-1 heading in body.
func firstHeading(body string) string {
	src := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 1 {
			return ast.WalkContinue, nil
		}
		if t := strings.TrimSpace(inlineText(heading, src)); t != "" {
			title = t
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	return title
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.CodeSpan:
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if t, ok := gc.(*ast.Text); ok {
					b.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
