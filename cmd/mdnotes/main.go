// Package main is the entry point for the mdnotes CLI tool.
package main

import (
	"os"

	"github.com/ahazxm/markdown-notes/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
