package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tpscraper/pkg/config"
)

func TestNewWithFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "errors.log")

	log, err := New(&config.LoggingConfig{Level: "debug", File: logPath})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	log.WarnWithFields("date parse error", map[string]interface{}{
		"datetime": "garbage",
	})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "date parse error") {
		t.Errorf("Expected log entry in file, got: %s", data)
	}
}

func TestNewAppendsToExistingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "errors.log")
	if err := os.WriteFile(logPath, []byte("existing entry\n"), 0644); err != nil {
		t.Fatalf("Failed to seed log file: %v", err)
	}

	log, err := New(&config.LoggingConfig{Level: "info", File: logPath})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	log.Info("new entry")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "existing entry") || !strings.Contains(content, "new entry") {
		t.Errorf("Expected append-only behavior, got: %s", content)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "chatty"}); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	base := NewNop()
	child := base.WithField("url", "https://example.com")
	if child == base {
		t.Error("Expected WithField to return a new logger")
	}
	// Both must stay usable
	base.Info("parent")
	child.Info("child")
}
