// Package logging builds the zap logger shared by the CLI and the engine.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger: development settings at debug level when
// debug is set, production settings at info level otherwise. Logs go to
// stderr so stdout stays free for reports.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Sampling = nil
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Quiet raises the level to warn, for interactive runs where the progress
// display owns the terminal.
func Quiet(l *zap.Logger) *zap.Logger {
	return l.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
}
