package main

import (
	"os"

	"github.com/tetherhq/tether/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
