package refs

import (
	"strings"
	"testing"
)

func TestClassifyScenario(t *testing.T) {
	text := "see #proj and [[Design Doc]]"

	t.Run("tag", func(t *testing.T) {
		m := Classify(text, strings.Index(text, "proj"))
		if m.Kind != Tag {
			t.Fatalf("kind=%v, want tag", m.Kind)
		}
		if got := m.Token.Slice(text); got != "#proj" {
			t.Errorf("token=%q, want %q", got, "#proj")
		}
		if got := m.Range.Slice(text); got != "proj" {
			t.Errorf("range=%q, want %q", got, "proj")
		}
		if m.Text != "proj" {
			t.Errorf("text=%q, want %q", m.Text, "proj")
		}
	})

	t.Run("wikilink", func(t *testing.T) {
		m := Classify(text, strings.Index(text, "Doc"))
		if m.Kind != WikiLink {
			t.Fatalf("kind=%v, want wikilink", m.Kind)
		}
		if got := m.Range.Slice(text); got != "Design Doc" {
			t.Errorf("range=%q, want %q", got, "Design Doc")
		}
		if got := m.Token.Slice(text); got != "[[Design Doc]]" {
			t.Errorf("token=%q, want %q", got, "[[Design Doc]]")
		}
	})
}

func TestClassifyEveryOffset(t *testing.T) {
	text := "see #proj and [[Design Doc]]"
	tagStart := strings.Index(text, "#proj")
	linkStart := strings.Index(text, "[[")

	for offset := 0; offset <= len(text); offset++ {
		m := Classify(text, offset)

		var want Kind
		switch {
		case offset > tagStart && offset <= tagStart+len("#proj"):
			want = Tag
		case offset >= linkStart+2 && offset <= linkStart+2+len("Design Doc"):
			want = WikiLink
		}

		if m.Kind != want {
			t.Errorf("offset %d: kind=%v, want %v", offset, m.Kind, want)
			continue
		}

		switch want {
		case None:
			if m != (Match{}) {
				t.Errorf("offset %d: none match carries data: %+v", offset, m)
			}
		case Tag:
			if got := m.Range.Slice(text); got != "proj" {
				t.Errorf("offset %d: range=%q, want proj", offset, got)
			}
		case WikiLink:
			if got := m.Range.Slice(text); got != "Design Doc" {
				t.Errorf("offset %d: range=%q, want Design Doc", offset, got)
			}
		}

		if again := Classify(text, offset); again != m {
			t.Errorf("offset %d: classification not deterministic: %+v vs %+v", offset, m, again)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		offset    int
		wantKind  Kind
		wantRange string
	}{
		{name: "before opener", text: "x [[a]]", offset: 2, wantKind: None},
		{name: "between brackets", text: "x [[a]]", offset: 3, wantKind: None},
		{name: "just after opener", text: "x [[a]]", offset: 4, wantKind: WikiLink, wantRange: "a"},
		{name: "just before closer", text: "x [[a]]", offset: 5, wantKind: WikiLink, wantRange: "a"},
		{name: "inside closer", text: "x [[a]]", offset: 6, wantKind: None},
		{name: "after closer", text: "x [[a]]", offset: 7, wantKind: None},
		{name: "empty link", text: "[[]]", offset: 2, wantKind: WikiLink, wantRange: ""},
		{name: "unclosed link", text: "see [[Design", offset: 12, wantKind: WikiLink, wantRange: "Design"},
		{name: "bare opener", text: "see [[", offset: 6, wantKind: WikiLink, wantRange: ""},
		{name: "display text is not target", text: "[[a|Alpha]]", offset: 6, wantKind: None},
		{name: "target before pipe", text: "[[a|Alpha]]", offset: 3, wantKind: WikiLink, wantRange: "a"},
		{name: "heading is not target", text: "[[a#intro]]", offset: 6, wantKind: None},
		{name: "triple bracket", text: "[[[c]]]", offset: 4, wantKind: None},
		{name: "on hash", text: "#proj", offset: 0, wantKind: None},
		{name: "after hash", text: "#proj", offset: 1, wantKind: Tag, wantRange: "proj"},
		{name: "end of tag", text: "#proj", offset: 5, wantKind: Tag, wantRange: "proj"},
		{name: "space after tag", text: "#proj x", offset: 6, wantKind: None},
		{name: "heading marker", text: "# Heading", offset: 1, wantKind: None},
		{name: "double heading marker", text: "## Heading", offset: 1, wantKind: None},
		{name: "hash at end of line", text: "see #", offset: 5, wantKind: Tag, wantRange: ""},
		{name: "hash alone", text: "#", offset: 1, wantKind: Tag, wantRange: ""},
		{name: "hash after paren", text: "(#", offset: 2, wantKind: Tag, wantRange: ""},
		{name: "hash before closing paren", text: "list (#)", offset: 7, wantKind: Tag, wantRange: ""},
		{name: "hash mid word", text: "a#", offset: 2, wantKind: None},
		{name: "hash inside word", text: "issue#12", offset: 7, wantKind: None},
		{name: "tag in parens", text: "(#a-b/c)", offset: 3, wantKind: Tag, wantRange: "a-b/c"},
		{name: "unicode tag", text: "voir #café ok", offset: 8, wantKind: Tag, wantRange: "café"},
		{name: "hash inside link", text: "[[my #x]]", offset: 7, wantKind: None},
		{name: "second line", text: "line one\nsee #todo", offset: 17, wantKind: Tag, wantRange: "todo"},
		{name: "crlf line", text: "[[a]]\r\nnext", offset: 3, wantKind: WikiLink, wantRange: "a"},
		{name: "link does not span lines", text: "[[a\nb]]", offset: 5, wantKind: None},
		{name: "negative offset", text: "#a", offset: -1, wantKind: None},
		{name: "offset past end", text: "#a", offset: 3, wantKind: None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Classify(tt.text, tt.offset)
			if m.Kind != tt.wantKind {
				t.Fatalf("kind=%v, want %v (match %+v)", m.Kind, tt.wantKind, m)
			}
			if tt.wantKind == None {
				return
			}
			if got := m.Range.Slice(tt.text); got != tt.wantRange {
				t.Errorf("range=%q, want %q", got, tt.wantRange)
			}
			if m.Text != tt.wantRange {
				t.Errorf("text=%q, want %q", m.Text, tt.wantRange)
			}
			if m.Kind == Tag && m.Token.Slice(tt.text) != "#"+tt.wantRange {
				t.Errorf("token=%q, want %q", m.Token.Slice(tt.text), "#"+tt.wantRange)
			}
		})
	}
}

func TestFindLinks(t *testing.T) {
	line := "See [[a]] and [[b|B]] and [[c#h]] and [[d"
	links := FindLinks(line)
	if len(links) != 4 {
		t.Fatalf("expected 4 links, got %d: %+v", len(links), links)
	}

	want := []struct{ text, token string }{
		{"a", "[[a]]"},
		{"b", "[[b|B]]"},
		{"c", "[[c#h]]"},
		{"d", "[[d"},
	}
	for i, w := range want {
		if links[i].Text != w.text {
			t.Errorf("link %d text=%q, want %q", i, links[i].Text, w.text)
		}
		if got := links[i].Token.Slice(line); got != w.token {
			t.Errorf("link %d token=%q, want %q", i, got, w.token)
		}
	}
}

func TestFindTags(t *testing.T) {
	line := "#one two #two-b, (#three) not#four [[x #five]] #"
	tags := FindTags(line)

	var got []string
	for _, m := range tags {
		got = append(got, m.Text)
	}
	want := []string{"one", "two-b", "three"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tags=%v, want %v", got, want)
	}
}
