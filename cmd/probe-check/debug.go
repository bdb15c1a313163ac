package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// DebugLogger provides structured debug output for a check run.
// It is disabled by default (when output is nil) and outputs to stderr when enabled.
type DebugLogger struct {
	output io.Writer
}

// NewDebugLogger creates a new debug logger.
// If output is nil, the logger is disabled and all methods are no-ops.
func NewDebugLogger(output io.Writer) *DebugLogger {
	return &DebugLogger{output: output}
}

// Enabled returns true if debug logging is enabled.
func (d *DebugLogger) Enabled() bool {
	return d.output != nil
}

// Section outputs a section header.
func (d *DebugLogger) Section(name string) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, "\n=== %s ===\n", name)
}

// Logf outputs a formatted debug message.
func (d *DebugLogger) Logf(format string, args ...any) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, format+"\n", args...)
}

// Bulletf outputs an indented bullet point item.
func (d *DebugLogger) Bulletf(format string, args ...any) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, "  • "+format+"\n", args...)
}

// ConfigFile outputs config file loading status.
func (d *DebugLogger) ConfigFile(label, path string, loaded bool) {
	if d.output == nil {
		return
	}

	status := "not found"
	if loaded {
		status = "loaded"
	}

	_, _ = fmt.Fprintf(d.output, "  %s: %s (%s)\n", label, path, status)
}

// debugConfigLoading outputs which config files contributed to cfg.
func debugConfigLoading(debug *DebugLogger, cfg *Config) {
	if !debug.Enabled() {
		return
	}

	debug.Section("Config")

	if len(cfg.LoadedFiles) == 0 {
		debug.Logf("  (no config files, using defaults)")
	}

	for _, label := range []string{"global", "project", "explicit"} {
		if path, ok := cfg.LoadedFiles[label]; ok {
			debug.ConfigFile(label, path, true)
		}
	}

	debug.Bulletf("cwd: %s", cfg.EffectiveCwd)

	if cfg.Golden != "" {
		debug.Bulletf("golden: %s", cfg.Golden)
	}
}

// debugInvocation outputs the resolved probe invocation.
func debugInvocation(debug *DebugLogger, inv *ProbeInvocation) {
	if !debug.Enabled() {
		return
	}

	debug.Section("Probe")
	debug.Bulletf("argv: %s", strings.Join(inv.Argv, " "))

	if inv.Path != "" && (len(inv.Argv) == 0 || inv.Path != inv.Argv[0]) {
		debug.Bulletf("path: %s", inv.Path)
	}

	debug.Bulletf("dir: %s", inv.Dir)
	debug.Bulletf("env: %d variables", len(inv.Env))

	for _, kv := range inv.Env {
		debug.Logf("    %s", kv)
	}
}

// debugMismatches outputs the checks that failed, sorted by field.
func debugMismatches(debug *DebugLogger, mismatches []Mismatch) {
	if !debug.Enabled() {
		return
	}

	debug.Section("Result")

	if len(mismatches) == 0 {
		debug.Logf("  all checks passed")

		return
	}

	fields := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		fields = append(fields, m.Field)
	}

	slices.Sort(fields)
	debug.Bulletf("failed: %s", strings.Join(slices.Compact(fields), ", "))
}
