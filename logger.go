package soci

import "github.com/sirupsen/logrus"

// Logger defines the interface for logging in soci.
// Users can implement this interface to integrate with their preferred
// logging library.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...any)

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keyvals ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...any)
}

// noOpLogger is a no-op logger that discards all log messages.
// This is the default logger when none is provided.
type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, keyvals ...any) {}
func (n *noOpLogger) Info(msg string, keyvals ...any)  {}
func (n *noOpLogger) Warn(msg string, keyvals ...any)  {}
func (n *noOpLogger) Error(msg string, keyvals ...any) {}

var defaultLogger Logger = &noOpLogger{}

// SetLogger sets the global logger for soci.
// This logger is used by all sessions unless overridden with WithLogger.
func SetLogger(logger Logger) {
	if logger == nil {
		defaultLogger = &noOpLogger{}
		return
	}
	defaultLogger = logger
}

// GetLogger returns the current global logger.
func GetLogger() Logger {
	return defaultLogger
}

// logrusLogger adapts a logrus logger to the Logger interface.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger wraps a logrus logger so it can be used as a soci Logger.
// Key-value pairs become logrus fields; a trailing unpaired key is logged
// under the "extra" field.
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{l: l}
}

func (a *logrusLogger) fields(keyvals []any) logrus.Fields {
	f := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "arg"
		}
		f[key] = keyvals[i+1]
	}
	if len(keyvals)%2 == 1 {
		f["extra"] = keyvals[len(keyvals)-1]
	}
	return f
}

func (a *logrusLogger) Debug(msg string, keyvals ...any) {
	a.l.WithFields(a.fields(keyvals)).Debug(msg)
}

func (a *logrusLogger) Info(msg string, keyvals ...any) {
	a.l.WithFields(a.fields(keyvals)).Info(msg)
}

func (a *logrusLogger) Warn(msg string, keyvals ...any) {
	a.l.WithFields(a.fields(keyvals)).Warn(msg)
}

func (a *logrusLogger) Error(msg string, keyvals ...any) {
	a.l.WithFields(a.fields(keyvals)).Error(msg)
}
