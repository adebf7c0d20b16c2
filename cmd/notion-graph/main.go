// Package main is the entry point for notion-graph CLI.
package main

import (
	"os"

	"github.com/robinkct/notion-account-graph/cmd/notion-graph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
