package telemetry

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunModel is one simulation run in the label store.
type RunModel struct {
	RunID     string `gorm:"primaryKey"`
	Run       int    `gorm:"index"`
	Seed      int64
	Agents    int
	Records   int
	CreatedAt time.Time
}

// TableName implements gorm's tabler.
func (RunModel) TableName() string { return "runs" }

// LabelModel is one per-frame, per-agent pose in the label store.
type LabelModel struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index:idx_label_order,priority:1"`
	Agent   string `gorm:"index:idx_label_order,priority:2"`
	Frame   int    `gorm:"index:idx_label_order,priority:3"`
	X       float64
	Y       float64
	Z       float64
	Heading float64
}

// TableName implements gorm's tabler.
func (LabelModel) TableName() string { return "labels" }

// SQLiteSink stores labels in a SQLite database via gorm.
type SQLiteSink struct {
	db *gorm.DB
}

// OpenSQLiteSink opens (or creates) the database at path and migrates the
// schema. An empty path uses a private in-memory database.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening label store: %w", err)
	}
	if path == "" {
		// Each pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("opening label store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&RunModel{}, &LabelModel{}); err != nil {
		return nil, fmt.Errorf("migrating label store: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// WriteRun implements Sink. A run's labels are written in one transaction;
// rewriting a run ID replaces its labels.
func (s *SQLiteSink) WriteRun(labels RunLabels) error {
	rows := labels.Rows()
	models := make([]LabelModel, len(rows))
	for i, r := range rows {
		models[i] = LabelModel{
			RunID:   r.RunID,
			Agent:   r.Agent,
			Frame:   r.Frame,
			X:       r.X,
			Y:       r.Y,
			Z:       r.Z,
			Heading: r.Heading,
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", labels.RunID).Delete(&LabelModel{}).Error; err != nil {
			return err
		}
		run := RunModel{
			RunID:   labels.RunID,
			Run:     labels.Run,
			Seed:    labels.Seed,
			Agents:  len(labels.Agents),
			Records: len(rows),
		}
		if err := tx.Save(&run).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(models, 500).Error
	})
}

// Labels returns a run's labels ordered by agent then frame.
func (s *SQLiteSink) Labels(runID string) ([]LabelModel, error) {
	var models []LabelModel
	err := s.db.Where("run_id = ?", runID).Order("id").Find(&models).Error
	return models, err
}

// Runs returns every stored run ordered by run index.
func (s *SQLiteSink) Runs() ([]RunModel, error) {
	var runs []RunModel
	err := s.db.Order("run").Find(&runs).Error
	return runs, err
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
