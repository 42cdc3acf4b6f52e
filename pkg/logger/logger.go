// Package logger provides structured logging with rotation support.
// It uses zap for structured logging and lumberjack for log file rotation.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the log level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	// LevelFatal calls os.Exit(1) after logging.
	LevelFatal Level = "fatal"
)

// Config represents logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error, fatal).
	Level Level

	// OutputPath is the log file path. Empty means stdout only.
	OutputPath string

	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int

	// MaxBackups is the maximum number of rotated files to retain.
	MaxBackups int

	// MaxAge is the maximum number of days to retain rotated files.
	MaxAge int

	// Compress gzips rotated files.
	Compress bool

	// Development switches the console encoder to a colored, human-readable format.
	Development bool

	// EnableStacktrace adds a stacktrace for Error and above.
	EnableStacktrace bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	logPath := filepath.Join(homeDir, ".counterbot", "logs", "counterbot.log")

	return &Config{
		Level:            LevelInfo,
		OutputPath:       logPath,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           7,
		Compress:         true,
		Development:      false,
		EnableStacktrace: true,
	}
}

// Logger wraps zap.Logger with a cached sugared logger.
type Logger struct {
	*zap.Logger
	config *Config
	sugar  *zap.SugaredLogger
}

// New creates a new logger with the given configuration.
func New(cfg *Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var consoleEncoder zapcore.Encoder
	if cfg.Development {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}

	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.OutputPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		// Files are always JSON so they stay machine-readable.
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	options := []zap.Option{zap.AddCaller()}
	if cfg.EnableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Development {
		options = append(options, zap.Development())
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), options...)

	return &Logger{
		Logger: zapLogger,
		config: cfg,
		sugar:  zapLogger.Sugar(),
	}, nil
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{Logger: z, config: &Config{Level: LevelError}, sugar: z.Sugar()}
}

// Sugar returns a sugared logger.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithFields creates a child logger carrying the given fields.
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		config: l.config,
		sugar:  child.Sugar(),
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// ParseLevel converts a free-form level name, defaulting to info.
func ParseLevel(name string) Level {
	switch Level(name) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return Level(name)
	default:
		return LevelInfo
	}
}

func parseLevel(level Level) (zapcore.Level, error) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	case LevelFatal:
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
