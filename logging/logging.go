package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// New builds the process logger. Interactive sessions get the human
// readable console encoder, everything else gets JSON. Setting DEBUG in the
// environment forces debug level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level '%s' with %w", level, err)
	}
	if os.Getenv("DEBUG") != "" {
		lvl = zapcore.DebugLevel
	}

	var config zap.Config
	if term.IsTerminal(int(os.Stderr.Fd())) {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger with %w", err)
	}
	return logger, nil
}
