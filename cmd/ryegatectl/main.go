// Command ryegatectl is the operations CLI. Every subcommand maps onto one
// API call; dollar figures are converted to base units on the way out and
// back to dollars on the way in.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
