// Command tradedash serves the trading-bot dashboard. It loads
// configuration, validates it, wires dependencies, sets up signal handling,
// and runs the selected subcommand.
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
