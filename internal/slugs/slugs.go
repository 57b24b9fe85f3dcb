// Package slugs provides slugification helpers for note labels and file names.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// ComponentSlug converts a single file or path component to a URL-safe slug.
// A trailing ".md" is dropped first.
func ComponentSlug(s string) string {
	s = strings.TrimSuffix(s, ".md")
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	}
	return slugged
}

// PathSlug slugifies each '/'-separated component of a path, dropping a trailing ".md".
func PathSlug(path string) string {
	path = strings.TrimSuffix(path, ".md")

	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = ComponentSlug(part)
	}
	return strings.Join(parts, "/")
}

// SameSlug reports whether a and b slugify to the same path.
func SameSlug(a, b string) bool {
	return PathSlug(a) == PathSlug(b)
}
