// Command supervisor is the process entry point: it parses CLI flags,
// loads configuration, and drives the supervisor loop until shutdown.
// Grounded on
// _examples/Nehonix-Team-XyPriss/tools/memory-cli/main.go's minimal
// main()-calls-Execute() shape, since the xypriss-sys-go retrieval under
// study carries no main.go of its own.
package main

import (
	"os"

	"github.com/nehonix-oss/procsupervisor/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
