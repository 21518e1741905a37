package main

import (
	"os"

	"github.com/applymill/applymill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
