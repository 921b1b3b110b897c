package logging

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a JSON logger. With cfg.File set, output goes to a rotating file.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var out zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg.File != "" {
		out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 14,
			MaxAge:     14,
			Compress:   true,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), out, level)
	return zap.New(core, zap.AddCaller()), nil
}
