package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sandbox-probe/probe"
)

// ErrWriteNeedsFiles is returned by normalize --write without file arguments.
var ErrWriteNeedsFiles = errors.New("--write needs file arguments")

// NormalizeCmd creates the normalize command, which rewrites transcripts in
// canonical form. Transcripts captured from a console without line
// discipline carry CRLF line endings; normalizing makes them usable as
// golden files.
func NormalizeCmd(cfg *Config) *Command {
	flags := flag.NewFlagSet("normalize", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.BoolP("write", "w", false, "Rewrite files in place instead of printing")

	return &Command{
		Flags:   flags,
		Usage:   "normalize [flags] [file...]",
		Short:   "Print transcripts in canonical form",
		Long:    "Parse each transcript file (stdin when none is given) and print it with \"\\n\"\nline endings. Exits 1 if a transcript is malformed.",
		Aliases: []string{"fmt"},
		Exec: func(_ context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
			write, _ := flags.GetBool("write")

			if len(args) == 0 {
				if write {
					fprintError(stderr, ErrWriteNeedsFiles)

					return NewExitCodeError(2)
				}

				if stdin == nil {
					stdin = strings.NewReader("")
				}

				tr, err := probe.Parse(stdin)
				if err != nil {
					return fmt.Errorf("stdin: %w", err)
				}

				return tr.Format(stdout)
			}

			var errs []error

			for _, arg := range args {
				err := normalizeFile(resolveAgainst(cfg.EffectiveCwd, arg), write, stdout)
				if err != nil {
					errs = append(errs, err)
				}
			}

			return errors.Join(errs...)
		},
	}
}

// normalizeFile prints the canonical form of the transcript at path, or
// rewrites the file in place when write is set.
func normalizeFile(path string, write bool, stdout io.Writer) error {
	tr, err := readTranscript(path)
	if err != nil {
		return err
	}

	if !write {
		return tr.Format(stdout)
	}

	var buf bytes.Buffer

	err = tr.Format(&buf)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, buf.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
