package main

import (
	"os"

	"finanzas/cmd/finanzas-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
