package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sandbox-probe/probe"
)

var (
	// ErrNoProbeCommand is returned when neither the command line nor the
	// config names a probe.
	ErrNoProbeCommand = errors.New("no probe command specified (pass one after flags or set \"probe\" in config)")
	// ErrNoGoldenPath is returned by --update without a golden file.
	ErrNoGoldenPath = errors.New("--update requires a golden file (--golden or \"golden\" in config)")
	// ErrInvalidEnvFlag is returned when an --env value is malformed.
	ErrInvalidEnvFlag = errors.New("invalid --env format: expected KEY=VALUE")
	// ErrProbeExit is returned when the probe exits non-zero.
	ErrProbeExit = errors.New("probe exited with non-zero status")
	// ErrMismatch is returned when at least one check fails.
	ErrMismatch = errors.New("transcript mismatch")
)

// CheckCmd creates the check command, which runs the probe and compares its
// transcript.
func CheckCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetInterspersed(false) // Stop parsing at the probe command
	flags.BoolP("help", "h", false, "Show help")
	flags.StringP("golden", "g", "", "Compare against golden transcript `file`")
	flags.BoolP("update", "u", false, "Write the probe's transcript to the golden file")
	flags.StringArray("wrap", nil, "Wrapper argv element, prepended to the probe command (repeatable)")
	flags.StringArray("env", nil, "Probe environment variable KEY=VALUE (repeatable)")
	flags.Bool("inherit-env", false, "Pass probe-check's environment to the probe")
	flags.Bool("debug", false, "Print run details to stderr")
	flags.BoolP("quiet", "q", false, "Quiet mode, exit code only")

	return &Command{
		Flags:   flags,
		Usage:   "check [flags] [--] <probe> [args]",
		Short:   "Run the probe and compare its transcript",
		Long:    "Run the probe (through the configured wrapper, if any), parse its output and\ncompare it against the golden transcript and the config's expectations.\nExits 0 when every check passes, 1 otherwise.",
		Aliases: []string{"run"},
		Exec: func(ctx context.Context, _ io.Reader, stdout, stderr io.Writer, args []string) error {
			quiet, _ := flags.GetBool("quiet")

			err := runCheck(ctx, cfg, env, flags, stdout, stderr, args)
			if err == nil || !quiet {
				return err
			}

			// Quiet mode keeps usage errors' exit code but prints nothing.
			var codeErr *ExitCodeError
			if errors.As(err, &codeErr) {
				return err
			}

			return ErrSilentExit
		},
	}
}

// runCheck runs the probe and compares its transcript. With --quiet it only
// suppresses its own stdout and the probe's stderr; the caller silences the
// returned error.
func runCheck(ctx context.Context, cfg *Config, env map[string]string, flags *flag.FlagSet, stdout, stderr io.Writer, args []string) error {
	debugEnabled, _ := flags.GetBool("debug")

	debug := NewDebugLogger(nil)
	if debugEnabled {
		debug = NewDebugLogger(stderr)
	}

	quiet, _ := flags.GetBool("quiet")
	update, _ := flags.GetBool("update")

	err := applyCheckFlags(cfg, flags)
	if err != nil {
		if !quiet {
			fprintError(stderr, err)
		}

		return NewExitCodeError(2)
	}

	debugConfigLoading(debug, cfg)

	probeArgv := args
	if len(probeArgv) == 0 {
		probeArgv = cfg.Probe
	}

	if len(probeArgv) == 0 {
		return ErrNoProbeCommand
	}

	if update && cfg.Golden == "" {
		return ErrNoGoldenPath
	}

	inv := NewProbeInvocation(cfg, probeArgv, env)
	debugInvocation(debug, &inv)

	probeStderr := stderr
	if quiet {
		probeStderr = io.Discard
	}

	var out bytes.Buffer

	code, err := ExecuteProbe(ctx, inv, &out, probeStderr)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return fmt.Errorf("probe interrupted: %w", ctx.Err())
	}

	if code != 0 {
		return fmt.Errorf("%w: exit code %d", ErrProbeExit, code)
	}

	got, err := probe.Parse(&out)
	if err != nil {
		return fmt.Errorf("parsing probe output: %w", err)
	}

	goldenPath := ""
	if cfg.Golden != "" {
		goldenPath = resolveAgainst(cfg.EffectiveCwd, cfg.Golden)
	}

	if update {
		err = writeGolden(goldenPath, &got)
		if err != nil {
			return err
		}

		if !quiet {
			fprintf(stdout, "updated %s\n", goldenPath)
		}

		return nil
	}

	var mismatches []Mismatch

	if goldenPath != "" {
		want, err := readTranscript(goldenPath)
		if err != nil {
			return err
		}

		mismatches = append(mismatches, CompareGolden(&want, &got)...)
	}

	mismatches = append(mismatches, CompareExpect(&cfg.Expect, &got)...)
	debugMismatches(debug, mismatches)

	if len(mismatches) == 0 {
		if quiet {
			return nil
		}

		n := checkCount(&cfg.Expect, goldenPath != "")
		if n == 0 {
			fprintln(stdout, colorize(stdout, colorGreen, "ok:"), "transcript well-formed, no checks configured")
		} else {
			fprintln(stdout, colorize(stdout, colorGreen, "ok:"), pluralize(n, "check"), "passed")
		}

		return nil
	}

	if !quiet {
		printMismatches(stdout, mismatches)
	}

	return fmt.Errorf("%w: %s failed", ErrMismatch, pluralize(len(mismatches), "check"))
}

// applyCheckFlags applies CLI flag overrides to the config.
// Only flags that were explicitly set override config values.
func applyCheckFlags(cfg *Config, flags *flag.FlagSet) error {
	if flags.Changed("golden") {
		cfg.Golden, _ = flags.GetString("golden")
	}

	if flags.Changed("wrap") {
		cfg.Wrap, _ = flags.GetStringArray("wrap")
	}

	if flags.Changed("inherit-env") {
		val, _ := flags.GetBool("inherit-env")
		cfg.InheritEnv = &val
	}

	if flags.Changed("env") {
		vals, _ := flags.GetStringArray("env")

		merged := make(map[string]string, len(cfg.Env)+len(vals))
		for k, v := range cfg.Env {
			merged[k] = v
		}

		for _, kv := range vals {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return fmt.Errorf("%w: %q", ErrInvalidEnvFlag, kv)
			}

			merged[key] = value
		}

		cfg.Env = merged
	}

	return nil
}

func readTranscript(path string) (probe.Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return probe.Transcript{}, fmt.Errorf("reading transcript: %w", err)
	}

	defer func() { _ = f.Close() }()

	tr, err := probe.Parse(f)
	if err != nil {
		return probe.Transcript{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return tr, nil
}

func writeGolden(path string, tr *probe.Transcript) error {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return fmt.Errorf("creating golden directory: %w", err)
	}

	var buf bytes.Buffer

	err = tr.Format(&buf)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, buf.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("writing golden file: %w", err)
	}

	return nil
}

func printMismatches(output io.Writer, mismatches []Mismatch) {
	for _, m := range mismatches {
		fprintln(output, colorize(output, colorRed, "FAIL"), m.Field)

		for line := range strings.SplitSeq(strings.TrimRight(m.Detail, "\n"), "\n") {
			fprintln(output, "    "+line)
		}
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
