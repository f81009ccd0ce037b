package logging

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a zap core for the given format ("json" or "console") and level,
// and returns an slog.Logger that writes through it.
func New(name string, format string, level string) (*slog.Logger, *zap.Logger) {
	lvl := zap.NewAtomicLevelAt(parseLevel(level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(format, "console") {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)

	zl := zap.New(core, zap.AddCaller()).Named(name)

	sl := slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithName(name), zapslog.WithCaller(true)))

	return sl, zl
}

// Install makes the logger the process default and returns a flush func.
func Install(name string, format string, level string) func() {
	sl, zl := New(name, format, level)
	slog.SetDefault(sl)
	return func() {
		_ = zl.Sync()
	}
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
