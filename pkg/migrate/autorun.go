package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/landedcost/pkg/config"
	"github.com/angelmondragon/landedcost/pkg/db"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

// MaybeRun applies pending migrations on boot when the app runs in dev mode with the
// auto-migrate flag, or always against a local sqlite database.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, dir string) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	sqliteLocal := client.Dialect() == db.DialectSQLite
	if !sqliteLocal && (!cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate) {
		return nil
	}
	if dir == "" {
		dir = DefaultDir
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": dir, "dialect": client.Dialect()})
		logg.Info(ctx, "running goose migrations (auto-run)")
	}

	if err := Run(ctx, sqlDB, client.Dialect(), dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "goose migrations completed")
	}
	return nil
}
