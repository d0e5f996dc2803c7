package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"emotionchart/internal/config"
)

func TestNewLocalStorageClient(t *testing.T) {
	base := filepath.Join(t.TempDir(), "exports-root")
	client, err := NewLocalStorageClient(base)
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}
	defer client.Close()

	if client.BaseDir() != base {
		t.Errorf("Expected baseDir %s, got %s", base, client.BaseDir())
	}
	if _, err := os.Stat(base); err != nil {
		t.Errorf("Base directory was not created: %v", err)
	}
}

func TestLocalStoreAndGetFile(t *testing.T) {
	client, err := NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}
	ctx := context.Background()

	folder := GenerateExportFolderPath(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), uuid.New())
	if err := client.StoreFile(ctx, folder, "records.json", []byte(`[]`)); err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}

	data, err := client.GetFile(ctx, folder+"/records.json")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected [], got %s", data)
	}

	if _, err := client.GetFile(ctx, folder+"/missing.json"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	client, err := NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}
	ctx := context.Background()

	tests := []string{"../secret", "exports/../../etc/passwd", "", ".."}
	for _, p := range tests {
		if _, err := client.GetFile(ctx, p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("GetFile(%q): expected ErrInvalidPath, got %v", p, err)
		}
	}
	if err := client.StoreFile(ctx, "..", "x.txt", nil); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath, got %v", err)
	}
}

func TestLocalListExports(t *testing.T) {
	client, err := NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}
	ctx := context.Background()

	exports, err := client.ListExports(ctx, 0)
	if err != nil {
		t.Fatalf("ListExports on empty store failed: %v", err)
	}
	if len(exports) != 0 {
		t.Errorf("Expected no exports, got %v", exports)
	}

	older := GenerateExportFolderPath(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), uuid.New())
	newer := GenerateExportFolderPath(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), uuid.New())
	for _, folder := range []string{older, newer} {
		if err := client.StoreFile(ctx, folder, IndexFile, []byte("<html></html>")); err != nil {
			t.Fatalf("StoreFile failed: %v", err)
		}
		if err := client.StoreFile(ctx, folder, "emotion_line.png", []byte("png")); err != nil {
			t.Fatalf("StoreFile failed: %v", err)
		}
	}

	exports, err = client.ListExports(ctx, 0)
	if err != nil {
		t.Fatalf("ListExports failed: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("Expected 2 exports, got %v", exports)
	}
	if exports[0] != newer+"/"+IndexFile {
		t.Errorf("Expected newest first, got %v", exports)
	}

	limited, _ := client.ListExports(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %v", limited)
	}
}

func TestNewStorageClient(t *testing.T) {
	cfg := &config.Config{LocalExportsDir: filepath.Join(t.TempDir(), "out"), Environment: "development"}

	if mode := ModeFor(cfg); mode != DeploymentLocal {
		t.Errorf("Expected local mode, got %s", mode)
	}
	client, err := NewStorageClient(context.Background(), ModeFor(cfg), cfg)
	if err != nil {
		t.Fatalf("NewStorageClient failed: %v", err)
	}
	if _, ok := client.(*LocalStorageClient); !ok {
		t.Errorf("Expected *LocalStorageClient, got %T", client)
	}

	cfg.GCSBucket = "bucket"
	cfg.Environment = "production"
	if mode := ModeFor(cfg); mode != DeploymentGCS {
		t.Errorf("Expected gcs mode, got %s", mode)
	}

	if _, err := NewStorageClient(context.Background(), DeploymentMode("ftp"), cfg); err == nil {
		t.Error("Expected error for unsupported mode")
	}
}
