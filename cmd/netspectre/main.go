package main

import (
	"os"

	"github.com/vulntor/netspectre/cmd/netspectre/commands"
	"github.com/vulntor/netspectre/pkg/storage"
)

// main runs the netspectre CLI and maps failures onto exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Invalid input (storage.ErrInvalidInput, profile validation)
//   - 4: Not found (storage.ErrNotFound)
func main() {
	command := commands.NewCommand()

	if err := command.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case storage.IsNotFound(err):
		return 4
	case storage.IsInvalidInput(err):
		return 2
	default:
		return 1
	}
}
