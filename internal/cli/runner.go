package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oyin-bo/autothread/pkg/errors"
)

// Exit codes reported by the one-shot CLI
const (
	ExitOK           = 0
	ExitInvalidInput = 1
	ExitUnauthorized = 2
	ExitNotFound     = 3
	ExitTimeout      = 4
	ExitFailure      = 5
	ExitPartial      = 6
)

// Runner handles CLI execution
type Runner struct {
	registry *Registry
	rootCmd  *cobra.Command
	out      io.Writer
	errOut   io.Writer
}

// NewRunner creates a new CLI runner
func NewRunner(registry *Registry, version string) *Runner {
	runner := &Runner{
		registry: registry,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}

	runner.rootCmd = &cobra.Command{
		Use:   "autothread",
		Short: "Autothread - write long Bluesky posts as threads",
		Long: `Autothread splits long-form text into a Bluesky thread and publishes it.

It operates in two modes:
1. MCP Server Mode (default): Run without arguments to start an MCP server on stdio
2. CLI Mode: Run with a command to execute a single action and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runner.rootCmd.Version = version
	runner.rootCmd.SetVersionTemplate("autothread version {{.Version}}\n")

	return runner
}

// SetOutput redirects command output and error messages
func (r *Runner) SetOutput(out, errOut io.Writer) {
	r.out = out
	r.errOut = errOut
	r.rootCmd.SetOut(out)
	r.rootCmd.SetErr(errOut)
}

// RegisterToolCommand adds a tool command to the CLI
func (r *Runner) RegisterToolCommand(def *ToolDefinition) {
	execute := func(ctx context.Context, args interface{}) error {
		output, err := def.Execute(ctx, args)
		if err != nil {
			return err
		}

		fmt.Fprintln(r.out, output)
		return nil
	}

	r.registry.RegisterTool(def)
	r.rootCmd.AddCommand(CreateCobraCommand(def, execute))
}

// Run executes the CLI and returns the process exit code
func (r *Runner) Run(ctx context.Context, args []string) int {
	r.rootCmd.SetArgs(args)
	r.rootCmd.SetContext(ctx)

	err := r.rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	if mcpErr, ok := errors.As(err); ok {
		fmt.Fprintf(r.errOut, "Error: %s\n", mcpErr.Message)
	} else {
		fmt.Fprintf(r.errOut, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	mcpErr, ok := errors.As(err)
	if !ok {
		return ExitFailure
	}

	switch mcpErr.Code {
	case errors.InvalidInput, errors.LengthExceeded:
		return ExitInvalidInput
	case errors.Unauthorized:
		return ExitUnauthorized
	case errors.NotFound:
		return ExitNotFound
	case errors.Timeout, errors.RateLimited:
		return ExitTimeout
	case errors.PartialPublish, errors.ParentUnresolvable:
		return ExitPartial
	default:
		return ExitFailure
	}
}
