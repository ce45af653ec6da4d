package validation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel validation failures. Callers branch on these with errors.Is;
// the wrapped message carries the per-file detail.
var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedFile = errors.New("unsupported file")
)

// WorkbookExtensions lists the spreadsheet extensions accepted for upload.
var WorkbookExtensions = []string{".xlsx", ".xlsm", ".xls"}

// xlsx files are zip archives
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// FileValidator provides file validation for uploads and batch input
type FileValidator struct {
	logger      *slog.Logger
	maxSizeByte int64
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger, maxSizeBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = 50 * 1024 * 1024
	}
	return &FileValidator{
		logger:      logger,
		maxSizeByte: maxSizeBytes,
	}
}

// MaxSizeBytes returns the configured upload size cap
func (v *FileValidator) MaxSizeBytes() int64 {
	return v.maxSizeByte
}

// ValidateUpload checks an uploaded workbook before it is stored.
// It verifies the filename, the size cap, and for zip-based formats
// the archive signature of the content.
func (v *FileValidator) ValidateUpload(filename string, content []byte) error {
	if err := v.ValidateWorkbookName(filename); err != nil {
		return err
	}

	if int64(len(content)) > v.maxSizeByte {
		v.logger.Warn("Upload exceeds size cap",
			slog.String("file", filename),
			slog.Int("size", len(content)),
			slog.Int64("max", v.maxSizeByte))
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrPayloadTooLarge, filename, len(content), v.maxSizeByte)
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: uploaded file %s has no content", ErrEmptyFile, filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if (ext == ".xlsx" || ext == ".xlsm") && !bytes.HasPrefix(content, zipMagic) {
		v.logger.Warn("Upload content does not match extension",
			slog.String("file", filename),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %s does not look like a %s workbook", ErrUnsupportedFile, filename, ext)
	}

	return nil
}

// ValidateWorkbookName checks the filename without touching content
func (v *FileValidator) ValidateWorkbookName(filename string) error {
	base := filepath.Base(filename)
	if base == "" || base == "." || base != filename {
		return fmt.Errorf("%w: invalid filename %q", ErrUnsupportedFile, filename)
	}

	// Office lock files
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%w: %s is a temporary workbook", ErrUnsupportedFile, filename)
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, allowed := range WorkbookExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: extension %q for %s", ErrUnsupportedFile, ext, filename)
}

// ValidateInputDirectory validates that input directory exists and contains expected files
func (v *FileValidator) ValidateInputDirectory(dir string, requiredPattern string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}

	if requiredPattern != "" {
		pattern := filepath.Join(dir, requiredPattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			v.logger.Error("Failed to check for files",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to check for files: %w", err)
		}

		if len(matches) == 0 {
			v.logger.Warn("No files matching pattern found",
				slog.String("directory", dir),
				slog.String("pattern", requiredPattern))
			// This is not an error - just no files to process
			return nil
		}

		v.logger.Info("Input directory validated",
			slog.String("directory", dir),
			slog.Int("files_found", len(matches)),
			slog.String("pattern", requiredPattern))
	}

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks if a file on disk is a processable workbook
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateWorkbookName(filepath.Base(path))
}

// CountFiles counts files matching a pattern in a directory
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	fullPattern := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		v.logger.Error("Failed to count files",
			slog.String("pattern", fullPattern),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	fileCount := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			fileCount++
		}
	}

	return fileCount, nil
}
