package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// VerboseChecker reports whether verbose output is enabled.
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes component-tagged log lines to stderr. Debug and Info
// messages are suppressed unless the checker reports verbose mode.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	writer         io.Writer
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger for the given component.
func New(component string, verboseChecker VerboseChecker) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		writer:         os.Stderr,
	}
}

// NewWithCallback creates a logger whose verbose state comes from a callback.
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: &callbackChecker{callback: verboseCheck},
		writer:         os.Stderr,
	}
}

// WithComponent returns a copy of the logger tagged with another component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		writer:         l.writer,
	}
}

type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

// Debug logs debug messages (verbose mode only).
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verboseChecker != nil && l.verboseChecker.IsVerbose() {
		l.log("DEBUG", msg, args...)
	}
}

// Info logs informational messages (verbose mode only).
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verboseChecker != nil && l.verboseChecker.IsVerbose() {
		l.log("INFO", msg, args...)
	}
}

// Warn logs warnings (always shown).
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log("WARN", msg, args...)
}

// Error logs errors (always shown).
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args...)
}

// InfoWithFields logs an info message with structured fields.
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verboseChecker != nil && l.verboseChecker.IsVerbose() {
		l.logWithFields("INFO", msg, fields, args...)
	}
}

// DebugWithFields logs a debug message with structured fields.
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verboseChecker != nil && l.verboseChecker.IsVerbose() {
		l.logWithFields("DEBUG", msg, fields, args...)
	}
}

func (l *Logger) log(level, msg string, args ...interface{}) {
	l.logWithFields(level, msg, nil, args...)
}

func (l *Logger) logWithFields(level, msg string, fields []Field, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	component := l.component
	if component == "" {
		component = "main"
	}

	formattedMsg := fmt.Sprintf(msg, args...)

	var fieldsStr string
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		fieldsStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	line := fmt.Sprintf("[%s] %s [%s] %s%s\n", timestamp, level, component, formattedMsg, fieldsStr)
	if _, err := fmt.Fprint(l.writer, line); err != nil {
		// Nothing sensible to do when the logger itself cannot write.
		_ = err
	}
}

// F builds an arbitrary field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Count builds a count field.
func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

// Duration builds a duration field.
func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

// Error builds an error field.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
