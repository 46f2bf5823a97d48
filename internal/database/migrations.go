package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/onmir/booktracker/internal/entities"
)

// MigrationStage is one ordered schema upgrade step that AutoMigrate cannot
// express, such as a data backfill. Stages run once each, in list order.
type MigrationStage struct {
	Name    string
	Migrate func(tx *gorm.DB) error
}

// migrationStages is the ordered upgrade list for the shipped schema.
var migrationStages = []MigrationStage{
	{
		// Rows written before the source column existed.
		Name: "0001_backfill_book_source",
		Migrate: func(tx *gorm.DB) error {
			return tx.Model(&entities.Book{}).
				Where("source IS NULL OR source = ''").
				Update("source", entities.DefaultBookSource).Error
		},
	},
}

func applyStages(db *gorm.DB, stages []MigrationStage) error {
	for _, stage := range stages {
		if stage.Name == "" || stage.Migrate == nil {
			return fmt.Errorf("invalid migration stage %q", stage.Name)
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var applied entities.SchemaStage
			err := tx.Where("name = ?", stage.Name).First(&applied).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if err := stage.Migrate(tx); err != nil {
				return err
			}
			log.Printf("[STORE] Applied migration stage %s", stage.Name)
			return tx.Create(&entities.SchemaStage{Name: stage.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration stage %s: %w", stage.Name, err)
		}
	}
	return nil
}
