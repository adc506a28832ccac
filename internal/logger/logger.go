package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var std = newStd()

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetLevel sets the minimum level that is written (debug, info, warn, error).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// SetFormat switches between "text" and "json" log lines.
func SetFormat(format string) {
	if strings.EqualFold(format, "json") {
		std.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	std.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

// Fatal logs at fatal level and exits the process with status 1.
// Arguments are handled in the manner of [fmt.Printf].
func Fatal(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

// Error logs at error level.
// Arguments are handled in the manner of [fmt.Printf].
func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Warn logs at warn level.
// Arguments are handled in the manner of [fmt.Printf].
func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Info logs at info level.
// Arguments are handled in the manner of [fmt.Printf].
func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Debug logs at debug level.
// Arguments are handled in the manner of [fmt.Printf].
func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// DebugEnabled reports whether debug messages are written.
func DebugEnabled() bool {
	return std.IsLevelEnabled(logrus.DebugLevel)
}
