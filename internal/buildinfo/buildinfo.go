// Package buildinfo holds release metadata stamped in with -ldflags -X.
package buildinfo

// Empty in development builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
