package main

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vint/pkg/config"
	"vint/pkg/store"
)

// initDB connects to the configured database and, unless DB_AUTO_MIGRATE is off,
// migrates the schema. Migration failures are logged and do not stop startup.
func initDB(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBLog)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if failed := store.Migrate(db, log); failed > 0 {
			log.WithField("failed", failed).Warn("schema migration incomplete")
		}
	}
	return db, nil
}
