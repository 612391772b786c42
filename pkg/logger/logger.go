package logger

import (
	"fmt"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

func New(cfg config.Logger) (Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level error: %w", err)
	}

	output := cfg.Output
	if len(output) == 0 {
		output = []string{"stdout"}
	}

	errOutput := cfg.ErrOutput
	if len(errOutput) == 0 {
		errOutput = []string{"stderr"}
	}

	zcfg := zap.Config{ //nolint:exhaustruct
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      output,
		ErrorOutputPaths: errOutput,
	}

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return l.Sugar(), nil
}
