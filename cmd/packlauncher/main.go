package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/fetch"
)

// Set at build time via -ldflags
var (
	version = "v0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// run executes one command line. The log file is closed on every path;
// cobra skips post-run hooks when a command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return runApp(ctx, newApp(), args, stdout, stderr)
}

func runApp(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	defer a.Close()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// exitCode distinguishes a missing critical library from other failures.
func exitCode(err error) int {
	var fatal *fetch.FatalDependencyMissingError
	if errors.As(err, &fatal) {
		return 2
	}
	return 1
}
