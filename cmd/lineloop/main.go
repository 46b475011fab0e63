// Package main is the entry point for the lineloop CLI.
package main

import (
	"os"

	"github.com/runger/lineloop/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
