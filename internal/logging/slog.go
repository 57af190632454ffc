package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// handler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type handler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *handler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *handler) WithGroup(string) slog.Handler { return h }

// NewFileLogger creates a structured logger that writes to both
// logDir/arpa.log and stderr. runID tags every record of one CLI run.
// It returns the logger and the open log file (for cleanup).
func NewFileLogger(logDir string, runID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "arpa.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	w := io.MultiWriter(f, os.Stderr)
	return slog.New(&handler{w: w, runID: runID}), f, nil
}

// SlogAdapter wraps *slog.Logger to satisfy the Logger interface.
type SlogAdapter struct {
	L *slog.Logger
}

func (a *SlogAdapter) Debug(msg string, args ...any) { a.L.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...any)  { a.L.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.L.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.L.Error(msg, args...) }
