// Package main is the entry point for the gbfs command.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/stacklok/gbfs-client/cmd/gbfs/app"
	"github.com/stacklok/gbfs-client/internal/config"
)

// getLogLevel parses the GBFS_LOG_LEVEL environment variable.
// Defaults to info if it is not set or invalid.
func getLogLevel() zapcore.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")

	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		slog.Warn("Invalid GBFS_LOG_LEVEL, using INFO", "value", levelStr)
		return zapcore.InfoLevel
	}
}

func main() {
	if err := app.ConfigureLogging(getLogLevel(), false); err != nil {
		slog.Error("Failed to configure logging", "error", err)
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
