package main

import (
	"os"

	"github.com/mpatel/patminer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
