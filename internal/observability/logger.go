// Package observability builds the process logger.
package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/five82/sockhttp/internal/config"
)

// SetupLogger builds a zap.Logger from c. Output goes to stderr unless a
// file is configured; with rotation enabled the file is managed by
// lumberjack. The returned cleanup flushes the logger and closes any file it
// opened; the caller should defer it.
func SetupLogger(c config.LogConfig) (*zap.Logger, func(), error) {
	return setupLogger(c, os.Stderr)
}

func setupLogger(c config.LogConfig, stderr io.Writer) (*zap.Logger, func(), error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch strings.ToLower(c.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	var (
		ws     zapcore.WriteSyncer
		closer io.Closer
	)
	switch {
	case strings.TrimSpace(c.File) == "":
		ws = zapcore.AddSync(stderr)
	case c.Rotate:
		lj := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    max(c.MaxSizeMB, 1),
			MaxBackups: max(c.MaxBackups, 0),
			MaxAge:     max(c.MaxAgeDays, 0),
			Compress:   c.Compress,
		}
		ws, closer = zapcore.AddSync(lj), lj
	default:
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		ws, closer = zapcore.AddSync(f), f
	}

	core := zapcore.NewCore(encoder, ws, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	cleanup := func() {
		_ = logger.Sync()
		if closer != nil {
			_ = closer.Close()
		}
	}
	return logger, cleanup, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("unknown log level %q", s)
}
