package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_Write(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	msg := []byte("hello log\n")
	n, err := w.Write(msg)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write returned %d, want %d", n, len(msg))
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(data) != string(msg) {
		t.Errorf("file content = %q, want %q", data, msg)
	}
}

func TestRotatingWriter_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "nested", "dir", "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(filepath.Dir(logPath)); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	if err := os.WriteFile(logPath, []byte("previous\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous\nnew\n" {
		t.Errorf("file content = %q, want %q", data, "previous\nnew\n")
	}
}

func TestRotatingWriter_Rotates(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	// Force the threshold low so a couple of writes trigger rotation.
	w.maxSize = 16

	first := []byte(strings.Repeat("a", 12) + "\n")
	if _, err := w.Write(first); err != nil {
		t.Fatal(err)
	}

	second := []byte(strings.Repeat("b", 12) + "\n")
	if _, err := w.Write(second); err != nil {
		t.Fatal(err)
	}

	// The first write should have been rotated out to test.log.1.
	rotated, err := os.ReadFile(logPath + ".1")
	if err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if string(rotated) != string(first) {
		t.Errorf("rotated content = %q, want %q", rotated, first)
	}

	current, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(current) != string(second) {
		t.Errorf("current content = %q, want %q", current, second)
	}
}

func TestRotatingWriter_RemovesOldest(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer w.Close()

	w.maxSize = 8

	// Each write exceeds the threshold, so every write after the first
	// rotates. With maxFiles 2 only .1 and .2 should survive.
	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("0123456789\n")); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected %s.1 to exist: %v", logPath, err)
	}
	if _, err := os.Stat(logPath + ".2"); err != nil {
		t.Errorf("expected %s.2 to exist: %v", logPath, err)
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected %s.3 to be removed, stat err: %v", logPath, err)
	}
}

func TestRotatingWriter_SyncAndClose(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	if _, err := w.Write([]byte("data\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
