package main

import (
	"os"

	"docwarden/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
