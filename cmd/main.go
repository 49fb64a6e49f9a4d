package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/session"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("STATIFY_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config := loadConfig(logger, configPath)
	shared.ApplyLogLevel(logger, config.Log.Level)

	var store session.Store
	if sqlStore, err := session.OpenSQLStore(config.Session.Path); err == nil {
		defer sqlStore.Close()
		store = sqlStore
	} else {
		logger.Warn("session store unavailable, login will not persist", "error", err)
		store = session.NewMemoryStore()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "statify",
		Usage:    "Your Spotify listening statistics in the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// loadConfig falls back to defaults when the config file is unreadable. .env and the
// environment still apply in that case.
func loadConfig(logger *log.Logger, path string) *shared.Config {
	config, err := shared.Load(path)
	if err == nil {
		return config
	}

	logger.Warn("failed to load config, using defaults", "path", path, "error", err)
	config = shared.DefaultConfig()
	shared.LoadDotEnv(".env")
	shared.ApplyEnv(config)
	return config
}
