// Package store opens the application database and keeps its schema current.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vint/models"
)

// Open connects to the database named by driver ("postgres" or "sqlite") and dsn.
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate runs AutoMigrate model by model so a failure on one table (usually a
// permissions problem on an existing schema) does not block the others. It
// returns the number of models that failed.
func Migrate(db *gorm.DB, log logrus.FieldLogger) int {
	failed := 0
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			table := fmt.Sprintf("%T", m)
			if stmt := (&gorm.Statement{DB: db}); stmt.Parse(m) == nil {
				table = stmt.Schema.Table
			}
			log.WithError(err).WithField("table", table).Warn("migration warning")
			failed++
		}
	}
	return failed
}

// IsUniqueViolation reports whether err comes from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// Ping checks that the database answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
