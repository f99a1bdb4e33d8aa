// Package logging builds the logrus logger shared by the commands, optionally
// writing to a size-rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hotbundle/hotbundle/internal/config"
)

// Rotation limits for file output.
const (
	MaxSizeMB  = 10
	MaxBackups = 3
)

// New builds a logger from cfg and makes it the logrus standard logger too.
// If the log file cannot be prepared the logger falls back to stderr and
// records a warning instead of failing.
func New(cfg config.LogSettings) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}

	output, outErr := buildOutput(cfg.File)
	if outErr != nil {
		fmt.Fprintf(os.Stderr, "logger_fallback: %v\n", outErr)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(output)
	logger.SetFormatter(formatter(cfg.Format))

	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.GetLevel())

	if outErr != nil {
		logger.WithFields(logrus.Fields{
			"action": "logger_fallback",
			"path":   cfg.File,
		}).Warn(outErr.Error())
	}
	return logger, nil
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
}

func buildOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stderr, fmt.Errorf("creating log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}
