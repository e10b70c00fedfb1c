package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/angelmondragon/checkout-flow/pkg/db"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
)

// MaybeRun applies pending migrations on boot when auto-migrate is enabled.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.App.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
	logg.Info(ctx, "running goose migrations")

	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
