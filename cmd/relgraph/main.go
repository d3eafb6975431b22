// Command relgraph parses relationship DSLs and builds inclusion trees.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/relgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own errors; ExitErrors only carry the code.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
