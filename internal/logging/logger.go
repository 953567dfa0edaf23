package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cyra/squidnorm/internal/config"
)

// Logger wraps a zap SugaredLogger behind the small printf-style surface
// the rest of the daemon uses.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a logger from configuration. When cfg.File is set, output goes
// to a lumberjack-rotated file instead of stderr.
func New(cfg config.LoggingConfig) (*Logger, error) {
	ws := zapcore.AddSync(os.Stderr)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
	return newWithSyncer(cfg, ws)
}

func newWithSyncer(cfg config.LoggingConfig, ws zapcore.WriteSyncer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, ws, level)
	return &Logger{s: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}, nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Info(msg string) {
	l.s.Info(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{s: l.s.With(kv...)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.s.Sync()
}
