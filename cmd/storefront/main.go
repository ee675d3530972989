package main

import (
	"os"

	"github.com/greencrop/storefront/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
