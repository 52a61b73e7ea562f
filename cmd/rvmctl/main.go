// Command rvmctl decodes, runs, and serves Packed Programs.
package main

import (
	"fmt"
	"os"

	"github.com/typeir/rvm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
