package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jlrickert/cli-toolkit/toolkit"
)

// Run executes the CLI using the streams, environment, filesystem and clock
// of rt. Errors are printed to the runtime's error stream.
func Run(ctx context.Context, rt *toolkit.Runtime, args []string) (int, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if rt == nil {
		return 1, fmt.Errorf("runtime is required")
	}

	deps := &Deps{Runtime: rt}
	cmd := NewRootCmd(deps)
	defer func() { deps.Shutdown() }()
	streams := rt.Stream()
	cmd.SetArgs(args)
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(streams.Err, "error: %s\n", renderUserError(err, deps))
		if errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return 130, err
		}
		return 1, err
	}
	return 0, nil
}
