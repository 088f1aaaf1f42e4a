package migrate

import (
	"context"
	"fmt"

	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/db"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// MaybeRunDev applies pending migrations at api startup, but only in dev with
// AGENTBOT_AUTO_MIGRATE set. SQLite databases are skipped; their schema comes from AutoMigrate
// in tests.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate || cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	if err := ValidateDir(DefaultDir); err != nil {
		return err
	}
	logg.Info(ctx, "applying migrations")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrations applied")
	return nil
}
