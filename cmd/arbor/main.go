// Command arbor runs and inspects instrumented arbor actions.
package main

import (
	"os"

	"github.com/mesh-intelligence/arbor/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
