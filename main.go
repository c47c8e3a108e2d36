package main

import (
	"os"

	"github.com/helvia-io/maestro/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
