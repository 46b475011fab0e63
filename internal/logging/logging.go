// Package logging builds the structured logger used by a session. The
// terminal belongs to the line editor, so output goes to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options configures New.
type Options struct {
	Level string // debug, info, warn, error
	// File receives log lines; empty discards them. Files ending in .json
	// get JSON lines, anything else logfmt.
	File string
	// Session tags every record; a random id is used when empty.
	Session string
}

// New returns a logger and a function releasing its file.
func New(opts Options) (*slog.Logger, func() error, error) {
	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}
	if opts.File == "" {
		return slog.New(slog.DiscardHandler).With("session", session), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path comes from the user's config
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	formatter := clog.LogfmtFormatter
	if strings.EqualFold(filepath.Ext(opts.File), ".json") {
		formatter = clog.JSONFormatter
	}
	return NewWriter(f, opts.Level, formatter).With("session", session), f.Close, nil
}

// NewWriter returns a logger writing to w.
func NewWriter(w io.Writer, level string, formatter clog.Formatter) *slog.Logger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(level),
		Formatter:       formatter,
	})
	return slog.New(l)
}

func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}
