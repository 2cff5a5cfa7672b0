package main

import (
	"os"

	"github.com/icodes/icds/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
