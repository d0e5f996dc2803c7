package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBuffered(level LogLevel, format LogFormat, component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: format, Output: &buf, Component: component}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for i, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected int
	}{
		{DEBUG, 4},
		{INFO, 3},
		{WARN, 2},
		{ERROR, 1},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			log, buf := newBuffered(tt.level, JSONFormat, ComponentView)
			log.Debug("hover")
			log.Info("rebuilt")
			log.Warn("empty chunk")
			log.Error("render failed", nil)

			if got := len(decodeLines(t, buf)); got != tt.expected {
				t.Errorf("Expected %d log lines at %s, got %d", tt.expected, tt.level, got)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	log, buf := newBuffered(INFO, JSONFormat, ComponentLoader)
	log.Info("records loaded", map[string]interface{}{
		"source":  "data/emotion_data.json",
		"records": 42,
	})

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]

	if entry.Level != "INFO" {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Component != ComponentLoader {
		t.Errorf("Expected component %s, got %s", ComponentLoader, entry.Component)
	}
	if entry.Fields["records"] != float64(42) {
		t.Errorf("Expected records=42, got %v", entry.Fields["records"])
	}
	if !strings.HasSuffix(entry.File, "logger_test.go") {
		t.Errorf("Expected caller to be the test file, got %s", entry.File)
	}
}

func TestTextFormatSortsFields(t *testing.T) {
	log, buf := newBuffered(INFO, TextFormat, ComponentServer)
	log.Info("request", map[string]interface{}{"status": 200, "path": "/streamgraph", "chunk": 5})

	output := buf.String()
	for _, want := range []string{"INFO", "[server]", "request", "fields={chunk=5, path=/streamgraph, status=200}", "logger/logger_test.go:"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}

func TestWithFieldsAndComponent(t *testing.T) {
	base, buf := newBuffered(INFO, JSONFormat, "base")
	session := base.WithComponent(ComponentLive).WithFields(map[string]interface{}{"session": "s1", "chunk": 1})

	session.Info("chunk changed", map[string]interface{}{"chunk": 4})

	entry := decodeLines(t, buf)[0]
	if entry.Component != ComponentLive {
		t.Errorf("Expected component %s, got %s", ComponentLive, entry.Component)
	}
	if entry.Fields["session"] != "s1" {
		t.Errorf("Expected inherited session field, got %v", entry.Fields["session"])
	}
	if entry.Fields["chunk"] != float64(4) {
		t.Errorf("Expected call fields to win, got %v", entry.Fields["chunk"])
	}
}

func TestDerivedLoggersShareLevel(t *testing.T) {
	base, buf := newBuffered(INFO, JSONFormat, "")
	child := base.WithComponent(ComponentCharts)

	child.Debug("hidden")
	base.SetLevel(DEBUG)
	child.Debug("visible")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0].Message != "visible" {
		t.Errorf("Expected only the entry after SetLevel, got %+v", entries)
	}
	if !child.Enabled(DEBUG) {
		t.Error("Expected child to follow the parent level")
	}
}

func TestErrorLogging(t *testing.T) {
	log, buf := newBuffered(ERROR, JSONFormat, "")
	log.Error("export failed", errors.New("bucket missing"), map[string]interface{}{"bucket": "charts"})

	entry := decodeLines(t, buf)[0]
	if entry.Error != "bucket missing" {
		t.Errorf("Expected error 'bucket missing', got %s", entry.Error)
	}
	if entry.Fields["bucket"] != "charts" {
		t.Errorf("Expected bucket field, got %v", entry.Fields["bucket"])
	}
}

func TestFatalExits(t *testing.T) {
	log, buf := newBuffered(INFO, JSONFormat, "")
	code := -1
	log.core.exit = func(c int) { code = c }

	log.Fatal("cannot listen", errors.New("address in use"))

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if entry := decodeLines(t, buf)[0]; entry.Level != "FATAL" {
		t.Errorf("Expected FATAL entry, got %s", entry.Level)
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	test, buf := newBuffered(INFO, JSONFormat, "global-test")
	SetGlobalLogger(test)

	Info("server starting")
	Warnf("chunk %d clamped", 1001)
	For(ComponentStorage).Info("saved")

	entries := decodeLines(t, buf)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 log lines, got %d", len(entries))
	}
	if entries[1].Level != "WARN" || entries[1].Message != "chunk 1001 clamped" {
		t.Errorf("Unexpected second entry %+v", entries[1])
	}
	if entries[2].Component != ComponentStorage {
		t.Errorf("Expected storage component, got %s", entries[2].Component)
	}
	if !strings.HasSuffix(entries[0].File, "logger_test.go") {
		t.Errorf("Expected global call site to be reported, got %s", entries[0].File)
	}
}

func TestConfigure(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	test, _ := newBuffered(INFO, JSONFormat, "")
	SetGlobalLogger(test)

	if err := Configure("debug", "text"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if test.Level() != DEBUG {
		t.Errorf("Expected DEBUG level, got %s", test.Level())
	}
	if err := Configure("loud", ""); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := Configure("", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if err := Configure("", ""); err != nil {
		t.Errorf("Expected empty values to be ignored, got %v", err)
	}
}

func TestParseLogFormat(t *testing.T) {
	t.Setenv("K_SERVICE", "")
	tests := []struct {
		in       string
		expected LogFormat
	}{
		{"JSON", JSONFormat},
		{"text", TextFormat},
		{"auto", TextFormat},
		{"yaml", -1},
	}
	for _, tt := range tests {
		if got := parseLogFormat(tt.in); got != tt.expected {
			t.Errorf("parseLogFormat(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}

	t.Setenv("K_SERVICE", "emotion-chart")
	if parseLogFormat("auto") != JSONFormat {
		t.Error("Expected JSON on Cloud Run")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if test.level.String() != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, test.level.String())
		}
	}
}

func BenchmarkJSONLogging(b *testing.B) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Format: JSONFormat, Output: &buf})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Info("frame", map[string]interface{}{"seq": i})
	}
}

func BenchmarkLevelFiltering(b *testing.B) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Format: JSONFormat, Output: &buf})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Debug("pointer move")
	}
}
