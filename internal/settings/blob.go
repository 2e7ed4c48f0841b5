package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// BlobStore persists one opaque settings blob.
type BlobStore interface {
	// ReadBlob returns the stored bytes. A missing blob returns nil, nil.
	ReadBlob() ([]byte, error)
	WriteBlob(b []byte) error
}

// FileBlob stores the blob in a single file, replaced atomically on write.
type FileBlob struct {
	Path string
}

// ReadBlob reads the file.
func (f FileBlob) ReadBlob() ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", f.Path, err)
	}
	return b, nil
}

// WriteBlob writes to a temp file in the same directory and renames it
// over the target so a power cut never leaves a torn record.
func (f FileBlob) WriteBlob(b []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create settings temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}

// MemBlob is an in-memory BlobStore for tests and headless runs.
type MemBlob struct {
	Data     []byte
	Writes   int
	ReadErr  error
	WriteErr error
}

// ReadBlob returns a copy of Data.
func (m *MemBlob) ReadBlob() ([]byte, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.Data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.Data...), nil
}

// WriteBlob replaces Data.
func (m *MemBlob) WriteBlob(b []byte) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Data = append([]byte(nil), b...)
	m.Writes++
	return nil
}
