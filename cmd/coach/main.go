// Command coach runs the Discovery Coach: the HTTP API for the browser UI,
// an MCP server for assistants, knowledge base ingestion and a terminal
// chat client.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
