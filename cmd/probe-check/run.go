package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

// Run is the main entry point. Returns exit code.
// sigCh can be nil if signal handling is not needed (e.g., in tests).
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("probe-check", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagVersion := globalFlags.BoolP("version", "v", false, "Show version and exit")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.String("config", "", "Use specified config `file`")

	err := globalFlags.Parse(args[1:])
	if err != nil {
		fprintError(stderr, err)
		fprintln(stderr)
		printGlobalOptions(stderr)

		return 2
	}

	if *flagVersion {
		if commit == "none" && date == "unknown" {
			fprintf(stdout, "probe-check %s (built from source)\n", version)
		} else {
			fprintf(stdout, "probe-check %s (%s, %s)\n", version, commit, date)
		}

		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		Env:             env,
	})
	if err != nil {
		fprintError(stderr, err)

		return 1
	}

	commands := []*Command{
		CheckCmd(&cfg, env),
		NormalizeCmd(&cfg),
	}

	commandMap := make(map[string]*Command, len(commands)*2)
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases {
			commandMap[alias] = cmd
		}
	}

	commandAndArgs := globalFlags.Args()

	// Show help: explicit --help, or bare `probe-check` with no configured probe
	if *flagHelp || (len(commandAndArgs) == 0 && len(cfg.Probe) == 0) {
		printUsage(stdout, commands)

		return 0
	}

	// Bare `probe-check` runs the configured probe. Anything that is not a
	// command name is the probe command line for an implicit "check".
	cmd := commandMap["check"]

	if len(commandAndArgs) > 0 {
		if named, ok := commandMap[commandAndArgs[0]]; ok {
			cmd = named
			commandAndArgs = commandAndArgs[1:]
		}
	}

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, stdin, stdout, stderr, commandAndArgs)
	}()

	if sigCh == nil {
		return <-done
	}

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(stderr, "Interrupted, stopping probe... (Ctrl+C again to force exit)")
		cancel()
	}

	select {
	case <-done:
		return 130
	case <-time.After(10 * time.Second):
		fprintln(stderr, "Probe did not stop, forced exit.")

		return 130
	case <-sigCh:
		fprintln(stderr, "Forced exit.")

		return 130
	}
}

func fprintln(output io.Writer, a ...any) {
	_, _ = fmt.Fprintln(output, a...)
}

func fprintf(output io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(output, format, a...)
}

// ANSI color codes for terminal output.
const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// fprintError prints an error message, red when output is a terminal.
func fprintError(output io.Writer, err error) {
	fprintln(output, colorize(output, colorRed, "error:"), err)
}

// colorize wraps s in color when output is a terminal.
func colorize(output io.Writer, color, s string) string {
	if !isTerminal(output) {
		return s
	}

	return color + s + colorReset
}

// isTerminal reports whether output is a terminal. Anything but an *os.File
// (buffers in tests, pipes wrapped by callers) is not.
func isTerminal(output io.Writer) bool {
	f, ok := output.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

const globalOptionsHelp = `  -h, --help             Show help
  -v, --version          Show version and exit
  -C, --cwd <dir>        Run as if started in <dir>
      --config <file>    Use specified config file`

func printGlobalOptions(output io.Writer) {
	fprintln(output, "Usage: probe-check [flags] [command] [args]")
	fprintln(output)
	fprintln(output, "Global flags:")
	fprintln(output, globalOptionsHelp)
	fprintln(output)
	fprintln(output, "Run 'probe-check --help' for a list of commands.")
}

func printUsage(output io.Writer, commands []*Command) {
	fprintln(output, "probe-check - compare sandbox-probe transcripts against golden files")
	fprintln(output)
	fprintln(output, "Usage: probe-check [flags] [command] [args]")
	fprintln(output)
	fprintln(output, "Flags:")
	fprintln(output, globalOptionsHelp)
	fprintln(output)
	fprintln(output, "Commands:")

	for _, cmd := range commands {
		fprintln(output, cmd.HelpLine())
	}

	fprintln(output)
	fprintln(output, "Without a command, arguments are the probe command line for 'check'.")
	fprintln(output, "Run 'probe-check <command> --help' for more information on a command.")
}
