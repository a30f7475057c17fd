package database

import (
	"fmt"

	"prediction-venue/internal/config"
	"prediction-venue/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured database and stores it in DB
func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLitePath + "?_busy_timeout=5000&_foreign_keys=off")
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	DB = db
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Venue state
	venueModels := []interface{}{
		&models.User{},
		&models.Market{},
		&models.Order{},
		&models.Match{},
		&models.EscrowEntry{},
		&models.VenueEvent{},
	}

	// AMM state
	ammModels := []interface{}{
		&models.LiquidityPool{},
		&models.LiquidityShare{},
		&models.AMMSwap{},
		&models.Credit{},
	}

	// Collaborators backed by the database
	collaboratorModels := []interface{}{
		&models.TokenBalance{},
		&models.TokenAllowance{},
		&models.OracleReport{},
	}

	for _, group := range [][]interface{}{venueModels, ammModels, collaboratorModels} {
		for _, model := range group {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
