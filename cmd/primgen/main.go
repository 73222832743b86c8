// Command primgen generates primary events for detector simulation.
package main

import (
	"os"

	"github.com/roach88/primgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
