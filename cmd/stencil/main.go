package main

import (
	"os"

	"github.com/stencil-dev/stencil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
