package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"emotionchart/internal/logger"
)

// LocalStorageClient handles local file system storage operations
type LocalStorageClient struct {
	baseDir string
	log     *logger.Logger
}

// NewLocalStorageClient creates a new local storage client
func NewLocalStorageClient(baseDir string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
	}

	return &LocalStorageClient{
		baseDir: baseDir,
		log:     logger.For(logger.ComponentStorage),
	}, nil
}

// BaseDir returns the directory files are stored under
func (l *LocalStorageClient) BaseDir() string {
	return l.baseDir
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

// StoreFile writes a file under baseDir/folder
func (l *LocalStorageClient) StoreFile(ctx context.Context, folder, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := CleanPath(folder + "/" + filename)
	if err != nil {
		return err
	}
	filePath := filepath.Join(l.baseDir, filepath.FromSlash(rel))

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	l.log.Debug("file stored", map[string]interface{}{"path": rel, "bytes": len(data)})
	return nil
}

// GetFile retrieves a file relative to baseDir
func (l *LocalStorageClient) GetFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := CleanPath(filePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", rel, err)
	}
	return data, nil
}

// ListExports lists export index pages, newest first
func (l *LocalStorageClient) ListExports(ctx context.Context, limit int) ([]string, error) {
	root := filepath.Join(l.baseDir, ExportsPrefix)

	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == IndexFile {
			rel, _ := filepath.Rel(l.baseDir, p)
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk exports directory: %w", err)
	}

	return newestFirst(paths, limit), nil
}
