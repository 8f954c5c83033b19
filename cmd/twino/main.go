// Package main is the entry point for the twino CLI.
//
// Usage:
//
//	twino [flags] <command> [subcommand] [args]
//
// Commands:
//
//	interview  - Run a voice interview and save the resulting Digital Twin
//	serve      - Run the HTTP API
//	twin       - Inspect and manage saved twins (get, list, prompt, create, delete)
//	archive    - Inspect archived interview sessions
//	config     - Configuration management (contexts, keys)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/twinoai/twino/cmd/twino/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
