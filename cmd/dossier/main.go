// Package main is the entry point for the dossier CLI.
package main

import (
	"os"

	"github.com/mwhitfield/dossier/cmd/dossier/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
