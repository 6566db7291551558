package migration

import (
	"github.com/meddor/scribe/internal/config"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations target Postgres. The mysql and sqlite
		// dialects are for local development, where the model schema is
		// authoritative.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&creditdomain.Account{},
				&promptdomain.PromptTemplate{},
				&usagedomain.UsageRecord{},
				&paymentdomain.EventRecord{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
