package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Manager stores uploaded workbooks on the local filesystem.
type Manager struct {
	uploadsDir string
	logger     *slog.Logger
}

// NewManager creates a new upload storage manager rooted at uploadsDir.
func NewManager(uploadsDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		uploadsDir: uploadsDir,
		logger:     logger.With(slog.String("component", "file_manager")),
	}
}

// SaveUpload writes workbook content under the uploads directory and
// returns the storage path. The upload ID prefixes the filename so
// concurrent uploads of the same file never collide.
func (m *Manager) SaveUpload(id, filename string, content []byte) (string, error) {
	if err := os.MkdirAll(m.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	path := filepath.Join(m.uploadsDir, id+"_"+sanitizeName(filename))

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to store upload %s: %w", filename, err)
	}

	m.logger.Info("Stored upload",
		slog.String("id", id),
		slog.String("file", filename),
		slog.String("path", path),
		slog.Int("size_bytes", len(content)))

	return path, nil
}

// ReadUpload returns the stored workbook bytes for a previously saved path.
func (m *Manager) ReadUpload(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", path, err)
	}
	return content, nil
}

// DeleteUpload removes a stored workbook.
func (m *Manager) DeleteUpload(path string) error {
	m.logger.Info("Deleting upload", slog.String("path", path))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload %s: %w", path, err)
	}
	return nil
}

// UploadExists reports whether a stored workbook is still on disk.
func (m *Manager) UploadExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDirectory creates a directory if it doesn't exist.
func (m *Manager) EnsureDirectory(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// sanitizeName strips path separators and traversal sequences from a
// client-supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
