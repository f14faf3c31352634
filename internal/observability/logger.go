package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/upb/estimate-api/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. Dev mode logs to stderr with the
// development encoder; otherwise entries go to a size-rotated file at LogPath.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Observability.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Observability.LogLevel, err)
	}

	if cfg.IsDevelopment() {
		encCfg := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
		return zap.New(core, zap.AddCaller()), nil
	}

	if cfg.Observability.LogPath == "" {
		return nil, fmt.Errorf("log path is required outside dev mode")
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Observability.LogPath,
		MaxSize:    cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
	})
	return zap.New(zapcore.NewCore(newEncoder(cfg.Observability.LogFormat), writer, level), zap.AddCaller()), nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(format, "json") {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}
