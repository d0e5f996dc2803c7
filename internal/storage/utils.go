package storage

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportsPrefix is the root folder of every export bundle
const ExportsPrefix = "exports"

// IndexFile is the entry page of an export bundle
const IndexFile = "index.html"

// ErrInvalidPath is returned for paths that escape the storage root
var ErrInvalidPath = errors.New("invalid storage path")

// GenerateExportFolderPath generates a folder path for one export bundle.
// Format: exports/YYYY/MM/DD/EmotionExport-YYYY-MM-DD-HH-MM-SS-<id>
// The id suffix keeps two exports in the same second apart.
func GenerateExportFolderPath(timestamp time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/EmotionExport-%04d-%02d-%02d-%02d-%02d-%02d-%s",
		ExportsPrefix,
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Year(), timestamp.Month(), timestamp.Day(),
		timestamp.Hour(), timestamp.Minute(), timestamp.Second(),
		id.String()[:8])
}

// CleanPath normalizes a relative storage path and rejects traversal
func CleanPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".css":
		return "text/css"
	case ".md":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// newestFirst sorts export paths in reverse order and applies limit. Folder
// names embed the timestamp so the lexical order is the creation order.
func newestFirst(paths []string, limit int) []string {
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && limit < len(paths) {
		paths = paths[:limit]
	}
	return paths
}
