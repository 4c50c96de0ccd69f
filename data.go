package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/farrelathalla/anvil-upgrades/config"
	"github.com/farrelathalla/anvil-upgrades/recipes"
	"github.com/farrelathalla/anvil-upgrades/scraper"
)

// loadUpgradePaths reads the recipe file, running the scraper first if it
// does not exist yet.
func loadUpgradePaths(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]recipes.UpgradePath, error) {
	if _, err := os.Stat(cfg.Data.Path); errors.Is(err, os.ErrNotExist) {
		logger.Info("Upgrade data file not found, running scraper", zap.String("file", cfg.Data.Path))
		if _, err := scraper.Run(ctx, cfg.Data.SourceURL, cfg.Data.Path, logger); err != nil {
			return nil, fmt.Errorf("failed to run scraper: %w", err)
		}
	}

	paths, err := scraper.LoadData(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load upgrade data: %w", err)
	}
	logger.Info("Loaded upgrade paths", zap.Int("paths", len(paths)))
	return paths, nil
}

// loadRegistry builds the recipe registry, tagging an empty data file as
// a configuration problem of that file.
func loadRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*recipes.Registry, error) {
	paths, err := loadUpgradePaths(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	reg, err := recipes.NewRegistry(paths, logger)
	if err != nil {
		var cfgErr *recipes.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = cfg.Data.Path
		}
		return nil, err
	}
	return reg, nil
}
