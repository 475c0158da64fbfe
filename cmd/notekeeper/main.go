package main

import (
	"os"

	"github.com/aviralrabbit1/nextNotes/internal/client/cmd"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	root := cmd.NewRootCmd(version, buildDate)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
