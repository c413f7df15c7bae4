package main

import (
	"os"

	"github.com/Soniya561/LAVAPUNK/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
