package migration

import (
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/smallbiznis/profitlens/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply brings the schema up to date. Postgres uses the versioned SQL
// migrations; sqlite and mysql fall back to gorm's AutoMigrate.
func Apply(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
	if conn == nil {
		return nil
	}
	log = log.Named("migration")

	if cfg.Type == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("dialect", cfg.Type))
		return nil
	}

	if err := conn.AutoMigrate(
		&sourcedomain.DataSource{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.AdSpendEntry{},
	); err != nil {
		return err
	}
	log.Info("schema auto-migrated", zap.String("dialect", cfg.Type))
	return nil
}
