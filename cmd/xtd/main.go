package main

import (
	"fmt"
	"os"

	"xtd/internal/cli"
	_ "xtd/internal/db/extractors"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xtd: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
