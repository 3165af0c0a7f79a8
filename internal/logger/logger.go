package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new logger based on environment
func NewLogger() (*zap.Logger, error) {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = "development"
	}

	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var cores []zapcore.Core

	// Console output
	var consoleEncoder zapcore.Encoder
	if env == "production" {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder, ""))
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalColorLevelEncoder, ""))
	}
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level))

	// File output with rotation if LOG_FILE is set
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}

		fileEncoder := zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder, "stacktrace"))
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(lumberjackLogger), level))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func encoderConfig(levelEncoder zapcore.LevelEncoder, stacktraceKey string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  stacktraceKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func parseLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithContext creates a logger with context fields
func WithContext(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
