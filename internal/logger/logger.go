// Package logger builds the process zap logger.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or console
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// New returns a logger writing to stderr and, when cfg.File is set, to that
// file as JSON. The returned level can be changed at runtime.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, lvl, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var (
		encCfg  zapcore.EncoderConfig
		encoder zapcore.Encoder
	)
	switch cfg.Format {
	case "console", "":
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, lvl, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl),
	}

	if cfg.File != "" {
		fh, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, lvl, fmt.Errorf("open log file: %w", err)
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(fh), lvl))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return log, lvl, nil
}
