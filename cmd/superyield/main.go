package main

import (
	"os"

	"superyield/cmd/superyield/cmd"

	_ "superyield/docs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
