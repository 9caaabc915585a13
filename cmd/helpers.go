package cmd

import (
	"fmt"

	"github.com/mj1618/browser-host/internal/app"
	"github.com/mj1618/browser-host/internal/config"
	"github.com/mj1618/browser-host/internal/logging"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

// loadConfig reads the file named by --config, then the environment.
func loadConfig() (*config.Config, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return config.Load(path)
}

// newApp builds the logger, provider and app for a command.
func newApp(opts ...app.Option) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, provider, log, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}
