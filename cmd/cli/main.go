// Package main is the entry point for the placeq CLI binary.
package main

import (
	"os"

	cli "placequery/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
