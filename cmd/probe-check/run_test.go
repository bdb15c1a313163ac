package main

import (
	"testing"
)

func Test_Run_Shows_Help_When_No_Args_And_No_Configured_Probe(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	stdout, _, code := c.Run()

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	AssertContains(t, stdout, "probe-check - compare sandbox-probe transcripts")
	AssertContains(t, stdout, "Commands:")
	AssertContains(t, stdout, "check [flags] [--] <probe> [args]")
	AssertContains(t, stdout, "normalize [flags] [file...]")
}

func Test_Run_Shows_Help_When_Help_Flag(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)

	for _, flag := range []string{"--help", "-h"} {
		stdout, _, code := c.Run(flag)

		if code != 0 {
			t.Errorf("%s: exit code = %d, want 0", flag, code)
		}

		AssertContains(t, stdout, "Run 'probe-check <command> --help' for more information on a command.")
	}
}

func Test_Run_Shows_Version_When_Version_Flag(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	stdout, _, code := c.Run("--version")

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	AssertContains(t, stdout, "probe-check dev (built from source)")
}

func Test_Run_Exits_2_With_Error_Prefix_When_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	_, stderr, code := c.Run("--unknown-flag")

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}

	AssertContains(t, stderr, "error:")
	AssertContains(t, stderr, "Global flags:")
}

func Test_Run_Shows_Command_Help_When_Command_Help_Flag(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	stdout := c.MustRun("check", "--help")

	AssertContains(t, stdout, "Usage: probe-check check [flags] [--] <probe> [args]")
	AssertContains(t, stdout, "--golden")
	AssertContains(t, stdout, "--inherit-env")
}

func Test_Run_Exits_2_When_Command_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	_, stderr, code := c.Run("check", "--bogus")

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}

	AssertContains(t, stderr, "unknown flag: --bogus")
}

func Test_Run_Fails_When_Config_Is_Invalid(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	c.WriteFile(".probe-check.json", `{"probe": `)

	_, stderr, code := c.Run("check")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	AssertContains(t, stderr, "parsing config")
}

func Test_Run_Fails_When_Check_Has_No_Probe(t *testing.T) {
	t.Parallel()

	c := NewCLITester(t)
	_, stderr := c.MustFail("check")

	AssertContains(t, stderr, "no probe command specified")
}
