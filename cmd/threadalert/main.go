package main

import (
	"fmt"
	"os"

	"github.com/roach88/threadalert/internal/cli"
)

func main() {
	ctx := cli.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
