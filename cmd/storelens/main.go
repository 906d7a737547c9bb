// Package main is the entry point for the storelens CLI.
package main

import (
	"os"

	"github.com/storelens/storelens/cmd/storelens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
