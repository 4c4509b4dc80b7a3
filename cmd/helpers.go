package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bookweave/internal/config"
	"github.com/bookweave/internal/logging"
	"github.com/bookweave/internal/registry"
	"github.com/bookweave/pkg/models"
)

// setup loads configuration, initializes logging, and builds the variable
// registry with any user additions merged in.
func setup(c *cli.Context) (*config.Config, *registry.Registry, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.General.LogLevel
	if c.String("log-level") != "" {
		level = c.String("log-level")
	}
	logging.Setup(level)

	reg, err := config.BuildRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build variable registry: %w", err)
	}
	return cfg, reg, nil
}

// stageFromFlag resolves the --stage flag, falling back to the configured
// default stage.
func stageFromFlag(c *cli.Context, cfg *config.Config) (models.Stage, error) {
	name := c.String("stage")
	if name == "" {
		name = cfg.General.DefaultStage
	}
	return models.ParseStage(name)
}
