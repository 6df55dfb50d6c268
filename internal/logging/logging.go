// Package logging wires a process-wide zap logger. Console output is always
// on; setting LOG_FILE adds a rotating JSON file sink.
package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	global *zap.Logger
	once   sync.Once
)

// Init builds the global logger from LOG_LEVEL and LOG_FILE. Safe to call
// more than once; only the first call configures anything.
func Init() *zap.Logger {
	once.Do(func() {
		global = build()
	})
	return global
}

// L returns the global logger, initializing it on first use.
func L() *zap.Logger {
	if global == nil {
		return Init()
	}
	return global
}

// S returns the sugared form of the global logger for printf-style call sites.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

func build() *zap.Logger {
	lvl := zapcore.InfoLevel
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		_ = lvl.Set(strings.ToLower(v))
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), lvl),
	}

	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     15,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, lvl))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
