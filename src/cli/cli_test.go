package cli

import (
	"testing"
)

func TestRejectsOutOfRangeOptimizationLevel(t *testing.T) {
	cmd := newRootCmd(false)
	cmd.SetArgs([]string{"-O", "9", "nonexistent.jc"})
	cmd.SilenceErrors = true
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected an error for -O 9")
	}
}

func TestDefaultFlagValues(t *testing.T) {
	cmd := newRootCmd(false)
	out, err := cmd.Flags().GetString("output")
	if err != nil {
		t.Fatalf("unexpected error reading output flag: %s", err)
	}
	if out != "a.out" {
		t.Fatalf("expected default output %q, got %q", "a.out", out)
	}
	lvl, err := cmd.Flags().GetInt("optimization-level")
	if err != nil {
		t.Fatalf("unexpected error reading optimization-level flag: %s", err)
	}
	if lvl != 2 {
		t.Fatalf("expected default optimization level 2, got %d", lvl)
	}
}

func TestMissingSourceArgumentRejected(t *testing.T) {
	cmd := newRootCmd(false)
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error when no source file is given")
	}
}
