// Command lake is the driver binary for the lake virtual machine: it
// parses, runs, externalizes and bundles lake assembly source according to
// internal/maincmd's flag surface.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/lakevm/lake/internal/maincmd"
)

var (
	// version and buildDate are set via -ldflags at build time.
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
