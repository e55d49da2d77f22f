// Package logger builds the process logger from the logging config section.
// Records carry the build version and instance id so lines from several
// storefront replicas can be told apart.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"storefront/internal/models"
	"storefront/internal/version"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup returns a logger for cfg. The closer is non-nil only for file
// output and must be closed on shutdown.
func Setup(cfg models.LoggingConfig, ver version.Info) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	w, closer, err := openWriter(cfg.Output, cfg.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}

	handler := newHandler(cfg.Format, w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With(
		slog.String("version", ver.Version),
		slog.String("git_commit", ver.GitCommit),
		slog.String("instance_id", ver.InstanceID),
	)
	return logger, closer, nil
}

// ForApp lowers the level to debug for a development app with debug set.
func ForApp(app models.AppConfig, cfg models.LoggingConfig) models.LoggingConfig {
	if app.IsDevelopment() && app.Debug {
		cfg.Level = "debug"
	}
	return cfg
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) (slog.Level, error) {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", level)
}

// openWriter maps the output setting to a writer; anything unrecognised
// goes to stdout.
func openWriter(output, path string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if path == "" {
			return nil, nil, fmt.Errorf("file path is required when output is file")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		return f, f, nil
	}
	return os.Stdout, nil, nil
}
