package trigger

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SnapshotRecord is one row of the policy snapshot registry: which
// step and model version a snapshot file was written for, and where.
type SnapshotRecord struct {
	ID        uint `gorm:"primaryKey"`
	TrainStep int64
	ModelID   int64
	Path      string
	CreatedAt time.Time
}

// Registry records policy snapshots in a sqlite database so a run's
// saved models can be located by step or version after the fact.
type Registry struct {
	db *gorm.DB
}

// OpenRegistry opens (creating if needed) the registry database at
// path.
func OpenRegistry(path string) (*Registry, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("openRegistry: %v", err)
	}
	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("openRegistry: %v", err)
	}
	return &Registry{db: db}, nil
}

// Record appends one snapshot row
func (r *Registry) Record(step, modelID int64, path string) error {
	record := SnapshotRecord{TrainStep: step, ModelID: modelID, Path: path}
	if err := r.db.Create(&record).Error; err != nil {
		return fmt.Errorf("record: %v", err)
	}
	return nil
}

// Snapshots returns every recorded snapshot in insertion order
func (r *Registry) Snapshots() ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	if err := r.db.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("snapshots: %v", err)
	}
	return records, nil
}
