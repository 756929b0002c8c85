// Package main is the entry point for the brynixbot CLI.
package main

import (
	"os"
	_ "time/tzdata"

	"github.com/brynix/brynixbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
