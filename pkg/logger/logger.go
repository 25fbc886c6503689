// Package logger configures the process-wide logrus instance: console +
// rotating file output via lumberjack. Grounded on the reference's
// pkg/logger.Init (same level/format/writer wiring); this repository
// has no notion of a "market cycle" so the cycle-based log-file
// rotation the reference builds on top of that base is not carried
// over — INIT_DESIGN.md justification: no component in this domain
// rotates logs by anything other than size/age, which lumberjack
// already does on its own.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the logger's tuning surface.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // optional; console-only if empty
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

var Logger *logrus.Logger

// Init configures the global logrus instance (both the package-level
// Logger and logrus's own default output), so every logrus.WithField
// call anywhere in the process lands in the same place.
func Init(cfg Config) error {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	formatter := &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	logger.SetFormatter(formatter)

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.OutputFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	out := io.MultiWriter(writers...)
	logger.SetOutput(out)
	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = logger
	return nil
}

// InitDefault configures info-level console+file logging with sane
// rotation defaults; used when no explicit Config is supplied.
func InitDefault() error {
	return Init(Config{
		Level:      "info",
		OutputFile: "logs/agent.log",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	})
}

func WithField(key string, value interface{}) *logrus.Entry {
	return logrus.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}
