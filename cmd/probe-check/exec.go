package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
)

// ProbeInvocation is a fully resolved probe run.
type ProbeInvocation struct {
	// Path is the executable; Argv[0] resolved against the working
	// directory probe-check runs in when it is a relative path.
	Path string
	// Argv is the wrapper (if any) followed by the probe command line.
	Argv []string
	// Dir is the working directory the probe is started in.
	Dir string
	// Env is passed to the child verbatim, in order.
	Env []string
}

// NewProbeInvocation combines config and the probe command line into an
// invocation. The environment is sorted by key so runs are reproducible.
func NewProbeInvocation(cfg *Config, probeArgv []string, hostEnv map[string]string) ProbeInvocation {
	argv := make([]string, 0, len(cfg.Wrap)+len(probeArgv))
	argv = append(argv, cfg.Wrap...)
	argv = append(argv, probeArgv...)

	env := make(map[string]string)
	if cfg.InheritEnv != nil && *cfg.InheritEnv {
		for k, v := range hostEnv {
			env[k] = v
		}
	}

	for k, v := range cfg.Env {
		env[k] = v
	}

	dir := cfg.EffectiveCwd
	if cfg.Workdir != "" {
		dir = resolveAgainst(cfg.EffectiveCwd, cfg.Workdir)
	}

	var path string
	if len(argv) > 0 {
		path = argv[0]
		if strings.ContainsRune(path, filepath.Separator) {
			path = resolveAgainst(cfg.EffectiveCwd, path)
		}
	}

	return ProbeInvocation{Path: path, Argv: argv, Dir: dir, Env: envMapToSliceSorted(env)}
}

// resolveAgainst returns path unchanged if absolute, else joined with base.
func resolveAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}

// ExecuteProbe runs the invocation with stdout and stderr attached.
// Returns the exit code of the probe (or its wrapper).
//
// When the context is cancelled, SIGTERM is sent to the child so wrappers
// such as bwrap can tear down their namespaces.
func ExecuteProbe(ctx context.Context, inv ProbeInvocation, stdout, stderr io.Writer) (int, error) {
	if len(inv.Argv) == 0 {
		return 1, ErrNoProbeCommand
	}

	path := inv.Path
	if path == "" {
		path = inv.Argv[0]
	}

	// The probe echoes argv, so argv[0] stays as configured even when the
	// executable path was resolved.
	cmd := exec.Command(path, inv.Argv[1:]...)
	cmd.Args[0] = inv.Argv[0]
	cmd.Dir = inv.Dir
	cmd.Env = slices.Clone(inv.Env)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if cmd.Env == nil {
		// A nil Env would inherit ours.
		cmd.Env = []string{}
	}

	err := cmd.Start()
	if err != nil {
		return 1, fmt.Errorf("starting probe: %w", err)
	}

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				_ = cmd.Process.Signal(syscall.SIGTERM)
			}
		case <-done:
		}
	}()

	err = cmd.Wait()

	close(done)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return 1, fmt.Errorf("waiting for probe: %w", err)
	}

	return 0, nil
}

// envMapToSliceSorted converts a map env to a sorted KEY=VALUE slice.
func envMapToSliceSorted(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}

	return out
}
