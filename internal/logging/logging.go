package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, console format and optional rotated log file
type Config struct {
	Level      string
	Format     string // json or text
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the apex/log handler for the process. When File is set,
// entries are also written as JSON to a lumberjack-rotated file; the
// returned closer flushes it.
func Setup(cfg Config) (io.Closer, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	var console log.Handler = json.New(os.Stderr)
	if cfg.Format == "text" {
		console = text.New(os.Stderr)
	}

	var closer io.Closer = nopCloser{}
	handler := console
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		handler = multi.New(console, json.New(w))
		closer = w
	}

	log.SetHandler(handler)
	log.SetLevel(level)
	return closer, nil
}
