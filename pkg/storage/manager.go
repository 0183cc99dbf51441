// Package storage handles image files, the avatar URL cache, CSV output and
// the listing-URL input file.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9_]`)

// Manager owns the images directory and the process-lifetime mapping from
// avatar source URL to local filename. The cache is consulted before any
// network fetch; a filename already present on disk counts as resolved.
type Manager struct {
	imagesDir string
	urlCache  map[string]string
	mu        sync.RWMutex
}

// NewManager creates a Manager, creating the images directory if absent
func NewManager(imagesDir string) (*Manager, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &Manager{
		imagesDir: imagesDir,
		urlCache:  make(map[string]string),
	}, nil
}

// FilenameFor derives the local filename for an avatar: the display name
// lowercased with every character outside [a-z0-9_] replaced by an
// underscore, an 8-character hash prefix of the URL for collision
// avoidance, and the URL path extension. The extension defaults to jpg and
// is lowercased along with the base.
func (m *Manager) FilenameFor(name, avatarURL string) string {
	base := unsafeChars.ReplaceAllString(strings.ToLower(name), "_")
	if base == "" {
		base = "avatar"
	}

	ext := "jpg"
	if u, err := url.Parse(avatarURL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); e != "" {
			ext = strings.ToLower(e)
		}
	}

	sum := sha256.Sum256([]byte(avatarURL))
	hash := hex.EncodeToString(sum[:])[:8]

	return fmt.Sprintf("%s_%s.%s", base, hash, ext)
}

// Exists reports whether a file of that name is already present in the
// images directory
func (m *Manager) Exists(filename string) bool {
	_, err := os.Stat(filepath.Join(m.imagesDir, filename))
	return err == nil
}

// Save writes image bytes to the images directory, using a temporary file
// and rename so partially written files never surface
func (m *Manager) Save(r io.Reader, filename string) error {
	target := filepath.Join(m.imagesDir, filename)
	tempFile := target + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// CachedFilename looks up a URL in the process-lifetime cache
func (m *Manager) CachedFilename(avatarURL string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	filename, ok := m.urlCache[avatarURL]
	return filename, ok
}

// CacheFilename records a resolved URL in the process-lifetime cache
func (m *Manager) CacheFilename(avatarURL, filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urlCache[avatarURL] = filename
}
