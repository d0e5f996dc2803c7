package logger

import (
	"fmt"
	"os"
	"strings"
)

var globalLogger *Logger

func init() {
	globalLogger = NewDefault()
	configureFromEnv()
}

// configureFromEnv applies LOG_LEVEL and LOG_FORMAT before the config layer
// loads, so early entries already honor them.
func configureFromEnv() {
	_ = Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Configure sets the global level and format from their names. Empty names
// leave the current setting. "auto" picks JSON on Cloud Run and text
// elsewhere.
func Configure(level, format string) error {
	if level != "" {
		l := parseLogLevel(level)
		if l == -1 {
			return fmt.Errorf("unknown log level %q", level)
		}
		globalLogger.SetLevel(l)
	}
	if format != "" {
		f := parseLogFormat(format)
		if f == -1 {
			return fmt.Errorf("unknown log format %q", format)
		}
		globalLogger.SetFormat(f)
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return -1
	}
}

// parseLogFormat parses a log format string
func parseLogFormat(format string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONFormat
	case "text":
		return TextFormat
	case "auto":
		if os.Getenv("K_SERVICE") != "" {
			return JSONFormat
		}
		return TextFormat
	default:
		return -1
	}
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// For returns a global-family logger tagged with component
func For(component string) *Logger {
	return globalLogger.WithComponent(component)
}

// Debug logs a debug message using the global logger
func Debug(message string, fields ...map[string]interface{}) {
	globalLogger.log(3, DEBUG, message, firstFields(fields), nil)
}

// Info logs an info message using the global logger
func Info(message string, fields ...map[string]interface{}) {
	globalLogger.log(3, INFO, message, firstFields(fields), nil)
}

// Warn logs a warning message using the global logger
func Warn(message string, fields ...map[string]interface{}) {
	globalLogger.log(3, WARN, message, firstFields(fields), nil)
}

// Error logs an error message using the global logger
func Error(message string, err error, fields ...map[string]interface{}) {
	globalLogger.log(3, ERROR, message, firstFields(fields), err)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, fields ...map[string]interface{}) {
	globalLogger.log(3, FATAL, message, firstFields(fields), err)
}

// Infof logs a formatted info message using the global logger
func Infof(format string, args ...interface{}) {
	globalLogger.log(3, INFO, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning message using the global logger
func Warnf(format string, args ...interface{}) {
	globalLogger.log(3, WARN, fmt.Sprintf(format, args...), nil, nil)
}
