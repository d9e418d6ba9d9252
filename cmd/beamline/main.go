package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tmadas/beamline/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Command failures are already rendered by the command's formatter.
	// Usage mistakes and cobra-internal errors never reach a formatter,
	// so they are reported here.
	var xerr *cli.ExitError
	if !errors.As(err, &xerr) || xerr.Code == cli.ExitUsageError {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
