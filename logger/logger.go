// Package logger is a process-wide zap sugared logger with optional rotated
// file output.
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogOption struct {
	Format   string // console or json
	LogDir   string // empty disables file output
	Level    string
	Compress bool
}

var (
	mu     sync.RWMutex
	sugar  = zap.NewNop().Sugar()
	closer func() error
)

// Init replaces the global logger. Logs go to stderr so command output on
// stdout stays clean.
func Init(opt LogOption) error {
	level, err := zapcore.ParseLevel(strings.ToLower(orDefault(opt.Level, "info")))
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if opt.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)}

	var rotator *lumberjack.Logger
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return err
		}
		rotator = &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, "roundtrip.log"),
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
			Compress:   opt.Compress,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "time"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
	if rotator != nil {
		closer = rotator.Close
	} else {
		closer = nil
	}
	return nil
}

// Replace swaps in an existing zap logger, mainly for tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, args ...interface{}) { get().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { get().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { get().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { get().Errorf(format, args...) }

func With(args ...interface{}) *zap.SugaredLogger { return get().With(args...) }

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
	if closer != nil {
		_ = closer()
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
