package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateSchema creates or updates the dataset tables
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&Dataset{}, &PropertyRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// RunMigrations brings the database schema up to date
func (d *Database) RunMigrations() error {
	if err := MigrateSchema(d.db); err != nil {
		return err
	}
	d.logger.Debug("Database schema is up to date")
	return nil
}
