package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a logger writing info and warnings to stdout and errors
// to stderr, plus everything to logPath when set. Debug switches to the
// development console encoder. The returned func syncs and closes outputs.
func newLogger(debug bool, logPath string) (*zap.Logger, func(), error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	newEncoder := zapcore.NewJSONEncoder
	minLevel := zapcore.InfoLevel
	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		newEncoder = zapcore.NewConsoleEncoder
		minLevel = zapcore.DebugLevel
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(encCfg), zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(newEncoder(encCfg), zapcore.Lock(os.Stderr), high),
	}

	var file *os.File
	if logPath != "" {
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			zap.NewAtomicLevelAt(minLevel),
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closed := false
	closeFn := func() {
		if closed {
			return
		}
		closed = true
		// Syncing stdout on some platforms returns EINVAL; nothing to do about it.
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, closeFn, nil
}
