// Package logger provides leveled logging for the pipeline. It wraps the
// standard log package with level filtering so long MCMC runs can emit
// progress at info level while page-by-page fetch detail stays behind debug.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	// DebugLevel logs are voluminous and usually disabled outside development.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs need attention but not individual review.
	WarnLevel
	// ErrorLevel logs indicate a failed operation.
	ErrorLevel
)

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
// Unknown levels fall back to info.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

func emit(at Level, tag, format string, args ...any) {
	if defaultLogger == nil || defaultLogger.level > at {
		return
	}
	_ = defaultLogger.logger.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...any) {
	emit(DebugLevel, "[DEBUG]", format, args...)
}

// Info logs a message at InfoLevel.
func Info(format string, args ...any) {
	emit(InfoLevel, "[INFO]", format, args...)
}

// Warn logs a message at WarnLevel.
func Warn(format string, args ...any) {
	emit(WarnLevel, "[WARN]", format, args...)
}

// Error logs a message at ErrorLevel.
func Error(format string, args ...any) {
	emit(ErrorLevel, "[ERROR]", format, args...)
}

// Fatal logs a message and exits.
func Fatal(format string, args ...any) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
