package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquireWritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.pid")

	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("pid file contains %q, want %d", got, os.Getpid())
	}
}

func TestSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.pid")

	l1, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer l1.Release()

	if _, err := Acquire(path); err == nil {
		t.Fatal("second Acquire should fail while the lock is held")
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.pid")

	l1, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l1.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	l2, err := Acquire(path)
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	defer l2.Release()
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := Acquire(""); err == nil {
		t.Fatal("empty path should be rejected")
	}
}
