package main

import (
	"os"

	"github.com/sadopc/breathr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
