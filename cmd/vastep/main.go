package main

import (
	"fmt"
	"os"

	"github.com/Nikolay-Shirokov/va-ai/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	code := cli.GetExitCode(err)
	// Validation failures are already described by the report.
	if err != nil && code != cli.ExitFailure {
		fmt.Fprintf(os.Stderr, "vastep: %v\n", err)
	}
	os.Exit(code)
}
