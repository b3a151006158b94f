package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func TestStartMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runStart([]string{"-config", missing})
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Failed to load config") {
		t.Errorf("stderr = %q, want config load failure", stderr)
	}
}

func TestCheckValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "telegram:\n  token: \"12345:AAbbCC\"\nstate:\n  path: " + filepath.Join(dir, "state", "parley.db") + "\nplugins:\n  pasta:\n    enabled: true\n    dir: " + filepath.Join(dir, "pasta") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runCheck([]string{"-config", path})
	})
	if code != 0 {
		t.Errorf("exit code = %d, want 0 (output: %s)", code, stdout)
	}
	if !strings.Contains(stdout, "Configuration OK") {
		t.Errorf("stdout = %q, want OK line", stdout)
	}
}

func TestStartInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	// Missing telegram token.
	if err := os.WriteFile(path, []byte("service:\n  name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runStart([]string{"-config", path})
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "telegram.token") {
		t.Errorf("stderr = %q, want token validation error", stderr)
	}
}
