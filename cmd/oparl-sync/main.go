// Package main is the entry point for the oparl-sync engine.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/cmd/oparl-sync/app"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/logging"
)

// logLevel reads OPARL_SYNC_LOG_LEVEL, falling back to LOG_LEVEL
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	raw := v.GetString("LOG_LEVEL")
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		slog.Warn("Invalid log level, using INFO", "error", err)
	}
	return level
}

func main() {
	zapLogger, err := logging.NewZap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(logging.FromZap(zapLogger, logLevel())))

	err = app.NewRootCmd().Execute()
	_ = zapLogger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
