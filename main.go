package main

import (
	"fmt"
	"os"

	"github.com/TFMV/treewatch/cmd"
)

func main() {
	// Recover from panics in event handlers so the exit code is still set.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "treewatch: panic: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "treewatch: %v\n", err)
		os.Exit(1)
	}
}
