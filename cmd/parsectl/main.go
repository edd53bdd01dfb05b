// ABOUTME: Command line client for parsing links without running the HTTP server
// ABOUTME: Embeds the linkparse library and prints results as JSON or markdown

package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
