package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sakilahypo/internal/errors"

	"github.com/google/uuid"
)

// FileStorage stores uploaded dataset files
type FileStorage interface {
	Store(ctx context.Context, file io.Reader, filename string) (string, error)
	Delete(ctx context.Context, filePath string) error
	Exists(ctx context.Context, filePath string) (bool, error)
}

// StorageConfig holds configuration for file storage
type StorageConfig struct {
	BasePath     string   // Directory uploads are written to
	MaxFileSize  int64    // Maximum file size in bytes
	AllowedTypes []string // Allowed file extensions
	ChunkSize    int      // Copy buffer size
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		BasePath:     "uploads/datasets",
		MaxFileSize:  100 << 20,
		AllowedTypes: []string{".csv", ".xlsx"},
		ChunkSize:    1 << 20,
	}
}

// LocalFileStorage implements FileStorage using local filesystem
type LocalFileStorage struct {
	config *StorageConfig
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(config *StorageConfig) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	return &LocalFileStorage{config: config}
}

// NewLocalFileStorageWithPath creates a new local file storage with a simple path
func NewLocalFileStorageWithPath(basePath string) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	return NewLocalFileStorage(config)
}

// Allowed reports whether the file extension may be stored
func (s *LocalFileStorage) Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.config.AllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Store saves a file under a unique name and returns its path. Files over
// MaxFileSize are rejected and removed.
func (s *LocalFileStorage) Store(ctx context.Context, file io.Reader, filename string) (string, error) {
	filename = filepath.Base(filename)
	if !s.Allowed(filename) {
		return "", errors.InvalidInput(fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.config.BasePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Unique names keep concurrent uploads of the same file apart
	ext := filepath.Ext(filename)
	baseName := filename[:len(filename)-len(ext)]
	timestamp := time.Now().Format("20060102_150405")
	uniqueName := fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, uuid.New().String()[:8], ext)

	filePath := filepath.Join(s.config.BasePath, uniqueName)

	destFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	buf := make([]byte, s.config.ChunkSize)
	limited := io.LimitReader(file, s.config.MaxFileSize+1)
	n, err := io.CopyBuffer(destFile, limited, buf)
	if err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}
	if n > s.config.MaxFileSize {
		os.Remove(filePath)
		return "", errors.InvalidInput(fmt.Sprintf("file exceeds %d bytes", s.config.MaxFileSize))
	}

	return filePath, nil
}

// Delete removes a file from storage
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if a file exists in storage
func (s *LocalFileStorage) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}
