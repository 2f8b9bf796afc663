// Package main provides the parlor CLI tool.
//
// Usage:
//
//	parlor [flags] <command> [args]
//
// Commands:
//
//	login     - Authenticate against a parlor server
//	logout    - Drop the persisted identity
//	sessions  - Browse and inspect past sessions
//	run       - Hold a live session over the realtime transport
//	config    - Configuration management
//	version   - Print version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.parlor/parlor/
//	Use 'parlor config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/parlorvoice/parlor/cmd/parlor/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
