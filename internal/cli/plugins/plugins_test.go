package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindIn_NotFound(t *testing.T) {
	_, err := findIn([]string{t.TempDir()}, "nonexistent-plugin-xyz")
	if !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindIn_SearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	for _, dir := range []string{first, second} {
		path := filepath.Join(dir, Prefix+"tail")
		if err := os.WriteFile(path, []byte("#!/bin/sh\necho tail"), 0755); err != nil {
			t.Fatalf("failed to create plugin: %v", err)
		}
	}

	found, err := findIn([]string{first, second}, "tail")
	if err != nil {
		t.Fatalf("findIn() error = %v", err)
	}
	if want := filepath.Join(first, Prefix+"tail"); found != want {
		t.Errorf("findIn() = %s, want %s", found, want)
	}
}

func TestFindIn_SkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, Prefix+"stats"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if _, err := findIn([]string{dir}, "stats"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFormatNotFoundError(t *testing.T) {
	msg := FormatNotFoundError("tail")

	for _, want := range []string{`"tail"`, "logscope-tail", "~/.logscope/plugins/", "logscope --help"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	execPath := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(execPath, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(execPath) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}
