package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// ErrSilentExit signals exit code 1 without printing an error.
var ErrSilentExit = errors.New("silent exit")

// ExitCodeError carries a specific exit code out of a command.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns nil for code 0 and an *ExitCodeError otherwise.
func NewExitCodeError(code int) error {
	if code == 0 {
		return nil
	}

	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Command is one probe-check subcommand.
type Command struct {
	Flags   *flag.FlagSet
	Usage   string // e.g. "check [flags] [--] <probe> [args]"
	Short   string // one line for the command list
	Long    string // shown by --help
	Aliases []string

	Exec func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the command's entry for the global usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
}

// PrintHelp writes the command's usage, description and flags.
func (c *Command) PrintHelp(output io.Writer) {
	fprintln(output, "Usage: probe-check "+c.Usage)
	fprintln(output)
	fprintln(output, c.Long)
	fprintln(output)
	fprintln(output, "Flags:")
	fprintf(output, "%s", c.Flags.FlagUsages())
}

// Run parses flags and executes the command. Returns the process exit code.
func (c *Command) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	c.Flags.Usage = func() {}
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)
	if err != nil {
		fprintError(stderr, err)
		fprintln(stderr)
		c.PrintHelp(stderr)

		return 2
	}

	help, _ := c.Flags.GetBool("help")
	if help {
		c.PrintHelp(stdout)

		return 0
	}

	err = c.Exec(ctx, stdin, stdout, stderr, c.Flags.Args())

	return exitCodeFor(stderr, err)
}

func exitCodeFor(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrSilentExit) {
		return 1
	}

	var codeErr *ExitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}

	fprintError(stderr, err)

	return 1
}
