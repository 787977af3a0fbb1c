// Package main is the entry point for the lakewap CLI binary.
package main

import (
	"os"

	"lakewap/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
