package database

import (
	"fmt"

	"github.com/chordgrid/chordgrid-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection used for the analysis cache.
func Connect(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate runs schema migrations for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AnalysisRecord{},
		&models.CorrectionRecord{},
	)
}
