package storage

import (
	"context"
)

// StorageClient stores export bundles. Paths are slash separated and relative
// to the backend root.
type StorageClient interface {
	// Close releases the backend
	Close() error

	// StoreFile writes data as folder/filename
	StoreFile(ctx context.Context, folder, filename string, data []byte) error

	// GetFile reads a stored file
	GetFile(ctx context.Context, filePath string) ([]byte, error)

	// ListExports returns export index pages, newest first. limit <= 0 means all.
	ListExports(ctx context.Context, limit int) ([]string, error)
}
