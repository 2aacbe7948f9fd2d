// Package storage persists payment receipt images and hands back durable
// URLs. The booking core only ever stores the returned URL string.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store accepts a binary blob and returns a durable URL for it
type Store interface {
	Store(data []byte, contentType string) (string, error)
}

// LocalStore writes receipts to the local filesystem and serves them under
// a base URL. Swap for an object-store implementation in production.
type LocalStore struct {
	baseDir string
	baseURL string
}

// NewLocalStore creates a filesystem-backed receipt store
func NewLocalStore(baseDir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, baseURL: baseURL}, nil
}

// Store writes the blob under a random name and returns its URL
func (s *LocalStore) Store(data []byte, contentType string) (string, error) {
	ext := ".bin"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "application/pdf":
		ext = ".pdf"
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
