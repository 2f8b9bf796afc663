// Package cli provides shared plumbing for parlor command line tools:
// context-based configuration, directory layout, and output formatting.
package cli
