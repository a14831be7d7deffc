// Package logger provides the process-wide zap logger: a colored console on
// stderr for people and an optional rotated JSON file for tooling.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance. It discards everything until Init is
// called, so packages can log unconditionally.
var Log = zap.NewNop()

// Sugar is the sugared logger for convenient logging.
var Sugar = Log.Sugar()

// FileConfig holds file logging configuration.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns default file logging settings.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// Options describes where log entries go.
type Options struct {
	Level   string
	Console io.Writer // Nil disables console output
	File    FileConfig
}

// New builds a logger without touching the globals.
func New(opts Options) *zap.Logger {
	lvl := parseLevel(opts.Level)

	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(true)),
			zapcore.AddSync(opts.Console),
			lvl,
		))
	}
	if opts.File.Path != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig(false)),
			zapcore.AddSync(rotator(opts.File)),
			lvl,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func encoderConfig(console bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if console {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

func rotator(cfg FileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

// Init installs the global logger: console on stderr, since stdout carries
// manifests and key lists, plus a rotated file when logFile is set.
func Init(level string, logFile string) error {
	var file FileConfig
	if logFile != "" {
		file = DefaultFileConfig(logFile)
	}
	return InitWithFileConfig(level, file, true)
}

// InitWithFileConfig installs the global logger with custom file settings.
// Set consoleOutput to false to log only to the file.
func InitWithFileConfig(level string, fileCfg FileConfig, consoleOutput bool) error {
	opts := Options{Level: level, File: fileCfg}
	if consoleOutput {
		opts.Console = os.Stderr
	}
	Replace(New(opts))
	return nil
}

// Replace swaps the global logger and returns a func restoring the old one.
func Replace(l *zap.Logger) func() {
	prev := Log
	Log = l
	Sugar = l.Sugar()
	return func() {
		Log = prev
		Sugar = prev.Sugar()
	}
}

// Named returns a child of the global logger tagged with a component name.
// The child is bound at call time; call it after Init.
func Named(name string) *zap.Logger {
	return Log.Named(name)
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
