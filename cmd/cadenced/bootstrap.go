package main

import (
	"fmt"
	"log/slog"

	"cadence/internal/config"
	"cadence/internal/daemon"
)

func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return daemon.New(cfg, logger)
}
