// Package logging builds the logr.Logger used by marketplace-sync.
//
// Records below error level are written to Out, and only in verbose mode.
// Error records are always written to Err.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New
type Options struct {
	// Verbose enables informational output
	Verbose bool
	// Level is the minimum level written in verbose mode: debug, info, warn or error.
	// Empty means info.
	Level string
	// Out receives informational records. Defaults to os.Stdout.
	Out io.Writer
	// Err receives error records. Defaults to os.Stderr.
	Err io.Writer
}

// New creates a logger from opts
func New(opts Options) (logr.Logger, error) {
	minLevel := zapcore.InfoLevel
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return logr.Discard(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		minLevel = lvl
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	infoEnabled := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return opts.Verbose && lvl >= minLevel && lvl < zapcore.ErrorLevel
	})
	errorEnabled := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(out), infoEnabled),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(errOut), errorEnabled),
	)

	return zapr.NewLogger(zap.New(core)), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	return cfg
}
