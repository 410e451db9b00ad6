// Package storage abstracts where uploaded files (RC copies, challan
// receipts, driver photos) are kept. Handlers depend on the Store
// interface; main picks local disk or object storage from config.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store saves and removes uploaded files.
type Store interface {
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// LocalStore saves files under a directory on the local filesystem.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the file to disk and returns its metadata.
func (s *LocalStore) Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error) {
	fullPath := filepath.Join(s.dir, filepath.Clean(path))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, file)
	if err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &FileInfo{
		URL:      s.URL(path),
		FileName: filepath.Base(path),
		FileSize: size,
		FileType: contentType,
	}, nil
}

// Delete removes a file. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Clean(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the serving URL for a stored file.
func (s *LocalStore) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}
