package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fastprodman/drawengine/internal/config"
)

// SetupJSON sets slog's default logger to use JSON output at the configured
// level. When a log file is configured the output also goes to a rotated file;
// the returned closer flushes and closes it.
func SetupJSON(cfg config.LogConfig) io.Closer {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	logger := slog.New(
		slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level}),
	)
	slog.SetDefault(logger)

	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
