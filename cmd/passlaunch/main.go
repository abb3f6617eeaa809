package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"passlaunch/internal/launch"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if errors.Is(err, launch.ErrUsage) {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", cmd.Name())
		}
		os.Exit(1)
	}
}
