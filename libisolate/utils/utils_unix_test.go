package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"", ""},
		{"/", "/"},
		{"/work", "/work"},
		{"/work/", "/work"},
		{"/a/../..", "/"},
		{"/../../../..", "/"},
		{"work/../other", "other"},
		{"../../escape", "escape"},
		{"./work", "work"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := CleanPath(tt.path); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSearchExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "target")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plain"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	pathEnv := "/nonexistent:" + dir

	got, err := SearchExecutable("target", pathEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != exe {
		t.Errorf("got %q, want %q", got, exe)
	}

	if _, err := SearchExecutable("plain", pathEnv); err == nil {
		t.Error("expected an error for a non-executable file")
	}
	if _, err := SearchExecutable("absent", pathEnv); err == nil {
		t.Error("expected an error for a missing executable")
	}
}
