package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NOOPLogger discards everything. It is the default for components that were
// not handed a logger.
var NOOPLogger = zap.NewNop().Sugar()

// New builds a sugared zap logger. Production environments get JSON output at
// info level, everything else the development console encoder.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if appEnv == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return l.Sugar(), nil
}

// Startup logs JSON to w at info level. The binaries use it before config is
// loaded, so failures that happen that early still reach the terminal.
func Startup(w zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, w, zap.InfoLevel)).Sugar()
}
