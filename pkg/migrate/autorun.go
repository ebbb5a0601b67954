package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot for local stacks. It is a
// no-op unless the env is dev and VENUEOPS_AUTO_MIGRATE is set. The migration files
// are linted before goose touches the database.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if client == nil {
		return errors.New("auto-migrate: db client is nil")
	}
	if err := ValidateDir(DefaultDir); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: sql handle: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
		logg.Info(ctx, "migrate.auto.start")
	}

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}

	version, err := CurrentVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if logg != nil {
		ctx = logg.WithField(ctx, "schema_version", version)
		logg.Info(ctx, "migrate.auto.done")
	}
	return nil
}
