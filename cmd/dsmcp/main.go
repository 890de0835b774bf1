package main

import (
	"os"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/cmd/dsmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
