package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func makeLogger(isDebug bool) *zap.SugaredLogger {
	return makeLoggerFor(isDebug, "plain")
}

// makeLoggerFor writes to stderr when the command output is JSON so that stdout stays parseable.
func makeLoggerFor(isDebug bool, output string) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if isDebug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if isDebug {
		encoderConfig.CallerKey = "caller"
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}

	sink := zapcore.Lock(os.Stdout)
	if output == "json" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.WithCaller(isDebug)).Sugar()
}
