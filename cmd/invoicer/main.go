package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var VERSION = "dev"

func main() {
	os.Exit(execute(newRootCmd()))
}

// execute runs the command and returns the process exit code. The error is
// printed to stderr because the logger may be not configured yet.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		zap.L().Warn("Command failed", zap.Error(err))
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// Configure configure zap logger, it writes to stderr.
func defaultLogger(levelSet string) error {
	cfg, err := loggerConfig(levelSet)
	if err != nil {
		return err
	}
	l, err := cfg.Build(loggerOptions()...)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	return nil
}

func loggerConfig(levelSet string) (zap.Config, error) {
	level := zapcore.WarnLevel
	if err := level.Set(levelSet); err != nil {
		return zap.Config{}, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(level)
	return cfg, nil
}

// loggerOptions keeps stack traces off warnings, user errors are logged at Warn.
func loggerOptions() []zap.Option {
	return []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
}
