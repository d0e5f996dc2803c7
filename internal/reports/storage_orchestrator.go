package reports

import (
	"context"
	"fmt"
	"path"

	"golang.org/x/sync/errgroup"

	"emotionchart/internal/logger"
	"emotionchart/internal/models"
	"emotionchart/internal/storage"
)

// maxParallelUploads bounds concurrent StoreFile calls of one export
const maxParallelUploads = 4

// ExportResult describes a stored export bundle
type ExportResult struct {
	Folder string   `json:"folder"`
	Index  string   `json:"index"`
	Files  []string `json:"files"`
}

// StorageOrchestrator stores generated export bundles
type StorageOrchestrator struct {
	storage   storage.StorageClient
	generator *FileGenerator
	log       *logger.Logger
}

// NewStorageOrchestrator creates a new storage orchestrator
func NewStorageOrchestrator(client storage.StorageClient, generator *FileGenerator) *StorageOrchestrator {
	return &StorageOrchestrator{
		storage:   client,
		generator: generator,
		log:       logger.For(logger.ComponentStorage),
	}
}

// Export renders every artifact and stores the bundle
func (so *StorageOrchestrator) Export(ctx context.Context, ds *models.Dataset, opts ExportOptions) (*ExportResult, error) {
	files, err := so.generator.GenerateAllFiles(ctx, ds, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate export: %w", err)
	}
	if err := so.StoreAllFiles(ctx, files); err != nil {
		return nil, err
	}

	result := &ExportResult{
		Folder: files.FolderPath,
		Index:  path.Join(files.FolderPath, storage.IndexFile),
		Files:  files.Names(),
	}
	so.log.Info("export stored", map[string]interface{}{
		"folder": result.Folder,
		"files":  len(result.Files),
		"source": ds.Source,
	})
	return result, nil
}

// StoreAllFiles writes every generated file into the bundle folder
func (so *StorageOrchestrator) StoreAllFiles(ctx context.Context, files *GeneratedFiles) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for _, name := range files.Names() {
		name := name
		data := files.Files[name]
		g.Go(func() error {
			if err := so.storage.StoreFile(gctx, files.FolderPath, name, data); err != nil {
				return fmt.Errorf("failed to store %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
