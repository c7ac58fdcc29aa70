package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

// ErrFileTooLarge is returned when a staged file exceeds the size limit
var ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

// Storage stages submitted files until their upload has finished
type Storage interface {
	Save(path string, contents io.Reader) (int64, error)
	Open(path string) (io.ReadCloser, error)
	RemoveAll(path string) error
}

// Local stages files on the local disk
type Local struct {
	maxFileSize int64 // Maximum number of bytes for files
	basePath    string
}

// NewLocal creates a new Local filesystem with the given base path
// basePath is the base directory to save the files to
// maxSize is the max number of bytes that a file can be
func NewLocal(basePath string, maxSize int64) (*Local, error) {
	p, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	return &Local{basePath: p, maxFileSize: maxSize}, nil
}

// Save writes contents to path and returns the number of bytes written.
// Contents over the size limit leave nothing behind and return ErrFileTooLarge.
func (l *Local) Save(path string, contents io.Reader) (int64, error) {
	fp, err := l.fullPath(path)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(fp)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return 0, fmt.Errorf("unable to create directory: %w", err)
	}

	// Write to a temporary file in the same directory so a partial write is never visible
	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return 0, fmt.Errorf("unable to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	// read one byte past the limit to tell "exactly max" from "too large"
	written, err := io.Copy(tempFile, io.LimitReader(contents, l.maxFileSize+1))
	if err != nil {
		tempFile.Close()
		return 0, fmt.Errorf("unable to write to file: %w", err)
	}

	if err = tempFile.Close(); err != nil {
		return 0, fmt.Errorf("unable to close temporary file: %w", err)
	}

	if written > l.maxFileSize {
		return 0, ErrFileTooLarge
	}

	if err := os.Rename(tempPath, fp); err != nil {
		return 0, fmt.Errorf("unable to move temporary file to final location: %w", err)
	}

	return written, nil
}

// Open returns a reader for the file at path
func (l *Local) Open(path string) (io.ReadCloser, error) {
	fp, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("unable to open the file: %w", err)
	}

	return f, nil
}

// RemoveAll deletes path and everything below it
func (l *Local) RemoveAll(path string) error {
	fp, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if fp == l.basePath {
		return fmt.Errorf("refusing to remove the staging root")
	}
	return os.RemoveAll(fp)
}

// Blob returns a domain.Blob that reads the staged file at path
func Blob(s Storage, path, name, contentType string, size int64) domain.Blob {
	return domain.NewBlob(name, contentType, size, func() (io.ReadCloser, error) {
		return s.Open(path)
	})
}

// fullPath returns the absolute path for path, rejecting anything outside the base path
func (l *Local) fullPath(path string) (string, error) {
	fp := filepath.Join(l.basePath, path)
	if fp != l.basePath && !strings.HasPrefix(fp, l.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the staging directory", path)
	}
	return fp, nil
}
