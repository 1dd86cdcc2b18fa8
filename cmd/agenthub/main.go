package main

import (
	"os"

	"github.com/agenthub-x/agenthub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
