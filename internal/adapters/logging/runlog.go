package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/piforge/piforge/internal/ports"
)

// RunLog appends timestamped entries to a per-run log file.
// The file is opened O_APPEND and never truncated, so successive
// invocations on the same day extend the same diagnostic trail.
type RunLog struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	fields []ports.Field
}

// OpenRunLog creates the logs directory if needed and opens the run log.
func OpenRunLog(dir string, now time.Time) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	path := filepath.Join(dir, "provision-"+now.Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	return &RunLog{file: f, path: path}, nil
}

// Path returns the run log file path.
func (l *RunLog) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Debug logs a debug message.
func (l *RunLog) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *RunLog) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ctx, ports.LevelInfo, msg, fields)
}

// Warn logs a warning message.
func (l *RunLog) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *RunLog) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.write(ctx, ports.LevelError, msg, fields)
}

// With returns a logger sharing the same file with extra fields.
func (l *RunLog) With(fields ...ports.Field) ports.Logger {
	newFields := make([]ports.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)
	return &RunLog{file: l.file, path: l.path, fields: newFields}
}

func (l *RunLog) write(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := time.Now().Format(time.RFC3339) + " [" + level.String() + "] " + msg
	for _, f := range l.fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}

	_, _ = fmt.Fprintln(l.file, line)
}

// Tee returns a logger that writes every entry to all of the given loggers.
func Tee(loggers ...ports.Logger) ports.Logger {
	return &tee{loggers: loggers}
}

type tee struct {
	loggers []ports.Logger
}

func (t *tee) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Debug(ctx, msg, fields...)
	}
}

func (t *tee) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Info(ctx, msg, fields...)
	}
}

func (t *tee) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Warn(ctx, msg, fields...)
	}
}

func (t *tee) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Error(ctx, msg, fields...)
	}
}

func (t *tee) With(fields ...ports.Field) ports.Logger {
	next := make([]ports.Logger, len(t.loggers))
	for i, l := range t.loggers {
		next[i] = l.With(fields...)
	}
	return &tee{loggers: next}
}

// Ensure RunLog and tee implement Logger.
var (
	_ ports.Logger = (*RunLog)(nil)
	_ ports.Logger = (*tee)(nil)
)
