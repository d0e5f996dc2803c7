package storage

import (
	"context"
	"fmt"

	"emotionchart/internal/config"
)

// DeploymentMode represents the deployment environment
type DeploymentMode string

const (
	DeploymentLocal DeploymentMode = "local"
	DeploymentGCS   DeploymentMode = "gcs"
)

// ModeFor picks the backend a configuration asks for
func ModeFor(cfg *config.Config) DeploymentMode {
	if cfg.UseGCS() {
		return DeploymentGCS
	}
	return DeploymentLocal
}

// NewStorageClient creates a storage client based on deployment mode and configuration
func NewStorageClient(ctx context.Context, deploymentMode DeploymentMode, cfg *config.Config) (StorageClient, error) {
	switch deploymentMode {
	case DeploymentLocal:
		dir := cfg.LocalExportsDir
		if dir == "" {
			dir = "exports"
		}
		client, err := NewLocalStorageClient(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return client, nil

	case DeploymentGCS:
		client, err := NewGCSClient(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported deployment mode: %s", deploymentMode)
	}
}
