package main

import (
	"os"

	"github.com/rustyeddy/stratrunner/cmd/stratrunner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
