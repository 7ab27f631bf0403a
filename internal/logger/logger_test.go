package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	for _, development := range []bool{false, true} {
		log, err := New(development)
		if err != nil {
			t.Fatalf("New(%v): %v", development, err)
		}
		if log == nil {
			t.Fatalf("New(%v) returned nil", development)
		}
		log.Info("probe")
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockmon.log")
	log := NewWithFile(false, FileOptions{
		Path:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})

	log.Info("file probe")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "file probe") {
		t.Errorf("log file missing entry: %q", data)
	}
}
