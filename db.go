package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/logging"
)

// initDB connects to the configured database. Schema migration runs when
// DB_AUTO_MIGRATE is on; permission errors are logged and ignored so a
// restricted DB user can still start the app. Default accounts are only
// created on a database without users.
func initDB(cfg *config.Config, logg *logrus.Logger) (*gorm.DB, error) {
	db, err := openDB(cfg, logg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logg, models.All()); err != nil {
			logg.WithError(err).Warn("schema migration incomplete")
		}
	}
	if err := database.Seed(db, logg); err != nil {
		logg.WithError(err).Warn("seeding default accounts failed")
	}
	return db, nil
}

func openDB(cfg *config.Config, logg *logrus.Logger) (*gorm.DB, error) {
	return database.Open(cfg.Database, logging.Gorm(logg, cfg.IsDevelopment()))
}

// migrateAndSeed backs the `migrate` command; unlike startup it fails on
// any migration error.
func migrateAndSeed(db *gorm.DB, logg *logrus.Logger) error {
	if err := database.Migrate(db, logg, models.All()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return database.Seed(db, logg)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
