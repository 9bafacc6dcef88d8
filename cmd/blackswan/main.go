package main

import (
	"os"

	"github.com/wonny/blackswan/backend/cmd/blackswan/commands"
)

// main is the entry point for the blackswan CLI
// ⭐ Single CLI entry point: go run ./cmd/blackswan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
