// Package main is the entry point for the todo list client: scriptable
// subcommands, and an interactive terminal UI when run without one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+err.Error()))
		stop()
		os.Exit(1)
	}
}
