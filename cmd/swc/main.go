// Command swc inspects and feeds sliding window counters kept in a shared
// cache. Every subcommand prints one JSON document per line on stdout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "swc:", err)
		os.Exit(1)
	}
}
