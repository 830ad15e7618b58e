// Package main provides the entry point for the trainsight CLI.
package main

import (
	"github.com/avelasco/trainsight/internal/cli"
)

func main() {
	cli.Execute()
}
