package main

import (
	"os"
	"path/filepath"
	"testing"

	"code.hybscloud.com/distsat/internal/config"
)

func TestRunReturnsIOErrorForMissingFilename(t *testing.T) {
	code := run([]string{})
	if code != config.ExitIOError {
		t.Fatalf("expected ExitIOError for a missing --filename, got %d", code)
	}
}

func TestRunSolvesSatisfiableCNFFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formula.cnf")
	cnf := "p cnf 2 3\n1 2 0\n-1 2 0\n1 -2 0\n"
	if err := os.WriteFile(path, []byte(cnf), 0o600); err != nil {
		t.Fatalf("write CNF: %v", err)
	}

	code := run([]string{"--filename", path, "--solver", "dd", "--cpus", "1"})
	if code != config.ExitSAT {
		t.Fatalf("expected ExitSAT, got %d", code)
	}
}

func TestRunDetectsUnsatCNFFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formula.cnf")
	cnf := "p cnf 1 2\n1 0\n-1 0\n"
	if err := os.WriteFile(path, []byte(cnf), 0o600); err != nil {
		t.Fatalf("write CNF: %v", err)
	}

	code := run([]string{"--filename", path, "--solver", "dd", "--cpus", "1"})
	if code != config.ExitUNSAT {
		t.Fatalf("expected ExitUNSAT, got %d", code)
	}
}
