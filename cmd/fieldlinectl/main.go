package main

import (
	"os"

	"github.com/fieldline/engine/cmd/fieldlinectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
