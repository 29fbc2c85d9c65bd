package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger
type Logger struct {
	*zap.Logger
}

// New creates a new logger instance.
// Logs go to stderr so that command output on stdout stays machine readable.
func New(colorLogs bool, disableLogs bool, timeFormat string) (*Logger, error) {
	if disableLogs {
		return &Logger{zap.NewNop()}, nil
	}

	var config zap.Config
	if colorLogs {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	config.EncoderConfig.EncodeTime = timeEncoder(timeFormat)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{zapLogger}, nil
}

// timeEncoder maps a time format name to a zap encoder, defaulting to ISO8601
func timeEncoder(timeFormat string) zapcore.TimeEncoder {
	switch timeFormat {
	case "kitchen":
		return zapcore.TimeEncoderOfLayout("3:04PM")
	case "rfc3339":
		return zapcore.RFC3339TimeEncoder
	case "rfc3339nano":
		return zapcore.RFC3339NanoTimeEncoder
	default:
		return zapcore.ISO8601TimeEncoder
	}
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

// Named creates a child logger scoped to a component
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}
