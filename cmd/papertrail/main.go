// Package main provides the entry point for the papertrail CLI.
package main

import (
	"os"

	"github.com/papertrail-app/papertrail/cmd/papertrail/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
