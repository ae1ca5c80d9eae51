// Command gistub generates .pyi typing stubs for GObject-introspection
// namespaces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gistub/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		code := cli.GetExitCode(err)
		// Commands report their own failures; only unformatted errors
		// (bad flags, unknown commands) are printed here.
		if _, ok := err.(*cli.ExitError); !ok {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}
