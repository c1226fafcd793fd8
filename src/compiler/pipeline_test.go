package compiler

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// requireClang skips the test when the system has no clang to shell out to; this package's end-to-end
// test depends on cpp.Run succeeding first.
func requireClang(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not installed, skipping end-to-end pipeline test")
	}
}

func TestRunEmitsObjectFile(t *testing.T) {
	requireClang(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "add.jc")
	if err := os.WriteFile(src, []byte("i32 add(i32 a, i32 b) {\n\treturn a + b;\n}\n"), 0644); err != nil {
		t.Fatalf("could not write fixture: %s", err)
	}
	out := filepath.Join(dir, "add.o")

	cfg := Config{Source: src, Output: out, OptLevel: DefaultOptLevel}
	if err := Run(cfg); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("expected object file at %q: %s", out, statErr)
	}
}

func TestRunWritesMIRDump(t *testing.T) {
	requireClang(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "id.jc")
	if err := os.WriteFile(src, []byte("i32 id(i32 a) {\n\treturn a;\n}\n"), 0644); err != nil {
		t.Fatalf("could not write fixture: %s", err)
	}
	out := filepath.Join(dir, "id.mir")

	cfg := Config{Source: src, Output: out, OutputMIR: true}
	if err := Run(cfg); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected MIR dump at %q: %s", out, err)
	}
	if len(b) == 0 {
		t.Fatalf("MIR dump was empty")
	}
}

func TestRunReportsSyntaxErrors(t *testing.T) {
	requireClang(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jc")
	if err := os.WriteFile(src, []byte("i32 broken( {\n"), 0644); err != nil {
		t.Fatalf("could not write fixture: %s", err)
	}

	cfg := Config{Source: src, Output: filepath.Join(dir, "broken.o")}
	if err := Run(cfg); err == nil {
		t.Fatalf("expected Run to report a syntax error")
	}
}
