package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func urlHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:8]
}

func TestFilenameFor(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name      string
		avatarURL string
		want      string
	}{
		{
			name:      "Jane Doe!!",
			avatarURL: "https://cdn.example.com/u/x.PNG?foo=bar",
			// base lowercased with underscores, extension lowercased too
			want: "jane_doe___" + urlHash("https://cdn.example.com/u/x.PNG?foo=bar") + ".png",
		},
		{
			name:      "Alice Example",
			avatarURL: "https://cdn.example.com/avatars/alice.jpg",
			want:      "alice_example_" + urlHash("https://cdn.example.com/avatars/alice.jpg") + ".jpg",
		},
		{
			name:      "Bob",
			avatarURL: "https://cdn.example.com/avatars/noext",
			want:      "bob_" + urlHash("https://cdn.example.com/avatars/noext") + ".jpg",
		},
		{
			name:      "",
			avatarURL: "https://cdn.example.com/anon.gif",
			want:      "avatar_" + urlHash("https://cdn.example.com/anon.gif") + ".gif",
		},
	}

	for _, tt := range tests {
		if got := m.FilenameFor(tt.name, tt.avatarURL); got != tt.want {
			t.Errorf("FilenameFor(%q, %q) = %q, want %q", tt.name, tt.avatarURL, got, tt.want)
		}
	}
}

func TestFilenameForIsDeterministic(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	first := m.FilenameFor("Jane Doe", "https://cdn.example.com/a.jpg")
	second := m.FilenameFor("Jane Doe", "https://cdn.example.com/a.jpg")
	if first != second {
		t.Errorf("Expected stable filenames, got %q and %q", first, second)
	}

	other := m.FilenameFor("Jane Doe", "https://cdn.example.com/b.jpg")
	if first == other {
		t.Error("Expected different URLs to hash to different filenames")
	}
}

func TestSaveAndExists(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if m.Exists("a.jpg") {
		t.Error("Expected a.jpg to not exist yet")
	}

	data := []byte("image bytes")
	if err := m.Save(bytes.NewReader(data), "a.jpg"); err != nil {
		t.Fatalf("Failed to save image: %v", err)
	}

	if !m.Exists("a.jpg") {
		t.Error("Expected a.jpg to exist after save")
	}

	written, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Error("Saved bytes do not match")
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("Leftover temp file: %s", entry.Name())
		}
	}
}

func TestURLCache(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, ok := m.CachedFilename("https://cdn.example.com/a.jpg"); ok {
		t.Error("Expected empty cache")
	}

	m.CacheFilename("https://cdn.example.com/a.jpg", "alice.jpg")

	filename, ok := m.CachedFilename("https://cdn.example.com/a.jpg")
	if !ok || filename != "alice.jpg" {
		t.Errorf("Expected cached alice.jpg, got %q (ok=%v)", filename, ok)
	}
}

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "images")
	if _, err := NewManager(dir); err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected images directory to be created: %v", err)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			url := fmt.Sprintf("https://cdn.example.com/%d.jpg", i)
			m.CacheFilename(url, fmt.Sprintf("%d.jpg", i))
			m.CachedFilename(url)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
