package domain

import (
	"bytes"
	"io"
)

const defaultContentType = "application/octet-stream"

// Blob is a named binary payload. Open returns a fresh reader on every call,
// so a retried upload always sends the full content.
type Blob struct {
	Name        string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

// NewBlob creates a Blob backed by the given opener
func NewBlob(name, contentType string, size int64, open func() (io.ReadCloser, error)) Blob {
	if contentType == "" {
		contentType = defaultContentType
	}
	return Blob{Name: name, ContentType: contentType, Size: size, open: open}
}

// BytesBlob creates a Blob held entirely in memory
func BytesBlob(name, contentType string, data []byte) Blob {
	return NewBlob(name, contentType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns a new reader over the blob contents
func (b Blob) Open() (io.ReadCloser, error) {
	if b.open == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return b.open()
}

// Bytes reads the whole blob into memory
func (b Blob) Bytes() ([]byte, error) {
	rc, err := b.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
