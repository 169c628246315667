// Package main provides the entry point for rv64sim.
// rv64sim is a user-space RV64GC CPU emulator.
//
// For the full CLI, use: go run ./cmd/rv64sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv64sim - RV64GC User-Space Emulator")
	fmt.Println("")
	fmt.Println("Usage: rv64sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -trace             Print each executed instruction")
	fmt.Println("  -cache-stats       Model L1 caches and report statistics")
	fmt.Println("  -cache-config      Path to cache configuration JSON file")
	fmt.Println("  -max-instructions  Stop after this many instructions")
	fmt.Println("  -v                 Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv64sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv64sim' instead.")
	}
}
