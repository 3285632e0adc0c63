package main

import (
	"fmt"
	"os"
)

func main() {
	cli := &cliContext{}
	rootCmd := NewRootCommand(cli)

	if err := cli.execute(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
