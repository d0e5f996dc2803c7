package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateExportFolderPath(t *testing.T) {
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	ts := time.Date(2026, 9, 7, 14, 3, 9, 0, time.UTC)

	got := GenerateExportFolderPath(ts, id)
	expected := "exports/2026/09/07/EmotionExport-2026-09-07-14-03-09-1b4e28ba"
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}

	other := GenerateExportFolderPath(ts, uuid.New())
	if other == got {
		t.Error("Expected exports in the same second to get different folders")
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"exports/a/index.html", "exports/a/index.html", false},
		{"/exports/a/index.html", "exports/a/index.html", false},
		{"exports//a/./b.png", "exports/a/b.png", false},
		{`exports\a\b.png`, "exports/a/b.png", false},
		{"../x", "", true},
		{"a/../../x", "", true},
		{"", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("CleanPath(%q) = %q, expected %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestGetContentType(t *testing.T) {
	tests := map[string]string{
		"index.html":      "text/html",
		"records.json":    "application/json",
		"line.svg":        "image/svg+xml",
		"stream.PNG":      "image/png",
		"summary.md":      "text/markdown",
		"styles.css":      "text/css",
		"notes.txt":       "text/plain",
		"archive.tar.bin": "application/octet-stream",
	}
	for name, expected := range tests {
		if got := GetContentType(name); got != expected {
			t.Errorf("GetContentType(%s) = %s, expected %s", name, got, expected)
		}
	}
}

func TestNewestFirst(t *testing.T) {
	paths := []string{"exports/2026/01", "exports/2026/03", "exports/2026/02"}
	got := newestFirst(paths, 2)
	if strings.Join(got, ",") != "exports/2026/03,exports/2026/02" {
		t.Errorf("Unexpected order %v", got)
	}
}
