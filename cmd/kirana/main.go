package main

import (
	"os"

	"github.com/kirana-labs/kirana/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
