package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	JSONFormat LogFormat = iota
	TextFormat
)

// Components used across the renderer
const (
	ComponentServer  = "server"
	ComponentLoader  = "loader"
	ComponentView    = "view"
	ComponentLive    = "live"
	ComponentCharts  = "charts"
	ComponentReports = "reports"
	ComponentStorage = "storage"
	ComponentRender  = "render"
)

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Function  string                 `json:"function,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger is a leveled structured logger. Loggers derived with WithComponent
// or WithFields share level, format and output with their parent, so
// reconfiguring any of them reconfigures the whole family.
type Logger struct {
	core      *core
	component string
	fields    map[string]interface{}
}

type core struct {
	mu     sync.Mutex
	level  LogLevel
	format LogFormat
	output io.Writer
	exit   func(int)
}

// Config holds logger configuration
type Config struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Logger{
		core: &core{
			level:  config.Level,
			format: config.Format,
			output: config.Output,
			exit:   os.Exit,
		},
		component: config.Component,
	}
}

// NewDefault creates a logger with default configuration
func NewDefault() *Logger {
	return New(Config{
		Level:  INFO,
		Format: JSONFormat,
		Output: os.Stdout,
	})
}

// WithComponent creates a new logger with the specified component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{core: l.core, component: component, fields: l.fields}
}

// WithFields creates a new logger that adds the fields to every entry.
// Fields passed to a log call win over these.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{core: l.core, component: l.component, fields: mergeFields(l.fields, fields)}
}

// Component returns the component name attached to entries
func (l *Logger) Component() string {
	return l.component
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// Level returns the minimum log level
func (l *Logger) Level() LogLevel {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.level
}

// SetFormat sets the log output format
func (l *Logger) SetFormat(format LogFormat) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.format = format
}

// SetOutput redirects the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.Level()
}

// log writes one entry. depth is the number of frames between the caller of
// interest and log itself.
func (l *Logger) log(depth int, level LogLevel, message string, fields map[string]interface{}, err error) {
	c := l.core
	c.mu.Lock()
	defer c.mu.Unlock()

	if level < c.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Component: l.component,
		Fields:    mergeFields(l.fields, fields),
	}

	if pc, file, line, ok := runtime.Caller(depth); ok {
		entry.File = file
		entry.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			name := fn.Name()
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			entry.Function = name
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	var output string
	switch c.format {
	case JSONFormat:
		b, mErr := json.Marshal(entry)
		if mErr != nil {
			// unencodable field values fall back to text
			output = l.formatText(entry)
		} else {
			output = string(b) + "\n"
		}
	default:
		output = l.formatText(entry)
	}

	_, _ = io.WriteString(c.output, output)

	if level == FATAL {
		c.exit(1)
	}
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	if len(extra) == 0 {
		return base
	}
	if len(base) == 0 {
		return extra
	}
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// formatText formats a log entry as a single human-readable line with
// fields sorted by key.
func (l *Logger) formatText(entry LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", entry.Timestamp, entry.Level)

	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, entry.Fields[k])
		}
		fmt.Fprintf(&b, " fields={%s}", strings.Join(parts, ", "))
	}

	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%s", entry.Error)
	}

	if entry.File != "" && entry.Line > 0 {
		fmt.Fprintf(&b, " (%s:%d)", shortFile(entry.File), entry.Line)
	}

	b.WriteString("\n")
	return b.String()
}

// shortFile keeps the package directory and file name
func shortFile(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return path
	}
	j := strings.LastIndex(path[:i], "/")
	return path[j+1:]
}

func firstFields(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(2, DEBUG, message, firstFields(fields), nil)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(2, INFO, message, firstFields(fields), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(2, WARN, message, firstFields(fields), nil)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields ...map[string]interface{}) {
	l.log(2, ERROR, message, firstFields(fields), err)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(message string, err error, fields ...map[string]interface{}) {
	l.log(2, FATAL, message, firstFields(fields), err)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(2, DEBUG, fmt.Sprintf(format, args...), nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(2, INFO, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(2, WARN, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(2, ERROR, fmt.Sprintf(format, args...), nil, nil)
}
