// Package database stores property tables in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
)

// ErrDatasetNotFound is returned when no dataset has the requested name
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is a named, stored property table
type Dataset struct {
	ID        string        `gorm:"primaryKey" json:"id" yaml:"id"`
	Name      string        `gorm:"uniqueIndex;not null" json:"name" yaml:"name"`
	Columns   string        `gorm:"not null" json:"columns" yaml:"columns"`
	RowCount  int           `json:"row_count" yaml:"row_count"`
	Cleaned   bool          `json:"cleaned" yaml:"cleaned"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Rows      []PropertyRow `gorm:"constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
}

// PropertyRow is one stored record. NULL marks a missing value.
type PropertyRow struct {
	ID            uint     `gorm:"primaryKey"`
	DatasetID     string   `gorm:"not null;index:idx_rows_dataset_position,priority:1"`
	Position      int      `gorm:"not null;index:idx_rows_dataset_position,priority:2"`
	District      *string
	PropertyType  *string
	AreaSqm       *int
	RoomCount     *int
	BathroomCount *int
	AgeYears      *int
	DistanceKm    *float64
	PriceSAR      *float64 `gorm:"column:price_sar"`
}

// Database wraps the gorm connection used for dataset storage
type Database struct {
	db        *gorm.DB
	batchSize int
	logger    *logrus.Logger
}

// NewDatabase opens (creating if needed) the SQLite file at dbPath
func NewDatabase(dbPath string, batchSize int, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size: %d", batchSize)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db, err := gorm.Open(&sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &Database{db: db, batchSize: batchSize, logger: logger}, nil
}

// Close releases the underlying connection pool
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTable stores a table under name, replacing any dataset with that name.
// Everything happens in one transaction; rows are inserted in batches.
func (d *Database) SaveTable(name string, table *models.PropertyTable) (*Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("dataset name is required")
	}

	dataset := &Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		Columns:   strings.Join(table.Columns, ","),
		RowCount:  table.Len(),
		Cleaned:   table.Cleaned,
		CreatedAt: time.Now().UTC(),
	}
	rows := make([]PropertyRow, table.Len())
	for i, r := range table.Records {
		rows[i] = toRow(dataset.ID, i, r)
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteByName(tx, name); err != nil && !errors.Is(err, ErrDatasetNotFound) {
			return err
		}
		if err := tx.Omit("Rows").Create(dataset).Error; err != nil {
			return fmt.Errorf("failed to create dataset: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, d.batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"dataset": name,
		"id":      dataset.ID,
		"rows":    dataset.RowCount,
	}).Info("Saved dataset")
	return dataset, nil
}

// LoadTable reads a stored dataset back in its original row order
func (d *Database) LoadTable(name string) (*models.PropertyTable, error) {
	dataset, err := findDataset(d.db, name)
	if err != nil {
		return nil, err
	}

	var rows []PropertyRow
	if err := d.db.Where("dataset_id = ?", dataset.ID).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}

	table := &models.PropertyTable{
		Columns: splitColumns(dataset.Columns),
		Records: make([]models.PropertyRecord, len(rows)),
		Cleaned: dataset.Cleaned,
	}
	for i, row := range rows {
		table.Records[i] = row.toRecord()
	}
	return table, nil
}

// ListDatasets returns every stored dataset ordered by name
func (d *Database) ListDatasets() ([]Dataset, error) {
	var datasets []Dataset
	if err := d.db.Order("name").Find(&datasets).Error; err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}

// DeleteDataset removes a dataset and its rows
func (d *Database) DeleteDataset(name string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return deleteByName(tx, name)
	})
}

func findDataset(tx *gorm.DB, name string) (*Dataset, error) {
	var dataset Dataset
	err := tx.Where("name = ?", name).First(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset: %w", err)
	}
	return &dataset, nil
}

func deleteByName(tx *gorm.DB, name string) error {
	dataset, err := findDataset(tx, name)
	if err != nil {
		return err
	}

	if err := tx.Where("dataset_id = ?", dataset.ID).Delete(&PropertyRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	if err := tx.Delete(dataset).Error; err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}

func toRow(datasetID string, position int, r models.PropertyRecord) PropertyRow {
	return PropertyRow{
		DatasetID:     datasetID,
		Position:      position,
		District:      optionalString(r.District),
		PropertyType:  optionalString(r.PropertyType),
		AreaSqm:       r.AreaSqm,
		RoomCount:     r.RoomCount,
		BathroomCount: r.BathroomCount,
		AgeYears:      r.AgeYears,
		DistanceKm:    r.DistanceKm,
		PriceSAR:      r.PriceSAR,
	}
}

func (row PropertyRow) toRecord() models.PropertyRecord {
	r := models.PropertyRecord{
		AreaSqm:       row.AreaSqm,
		RoomCount:     row.RoomCount,
		BathroomCount: row.BathroomCount,
		AgeYears:      row.AgeYears,
		DistanceKm:    row.DistanceKm,
		PriceSAR:      row.PriceSAR,
	}
	if row.District != nil {
		r.District = *row.District
	}
	if row.PropertyType != nil {
		r.PropertyType = *row.PropertyType
	}
	return r
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitColumns(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
