package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const fallbackVersion = "0.1.0"

// GetVersion returns APP_VERSION when set (CI builds), otherwise the VERSION
// file plus the short VCS revision embedded by the Go toolchain.
func GetVersion() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}

	base := getBaseVersion(".", "..")
	if rev := buildRevision(); rev != "" {
		return base + "+" + rev
	}
	return base
}

// getBaseVersion reads the first VERSION file found in dirs
func getBaseVersion(dirs ...string) string {
	for _, dir := range dirs {
		content, err := os.ReadFile(filepath.Join(dir, "VERSION"))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(content)); v != "" {
			return v
		}
	}
	return fallbackVersion
}

// buildRevision returns the first 7 characters of the embedded VCS revision
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
