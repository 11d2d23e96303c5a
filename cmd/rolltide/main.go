// Command rolltide compiles RT sources into an IR document and C++
// declarations.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/rolltide/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands report their own ExitErrors; anything else (bad arguments)
	// is printed here.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
