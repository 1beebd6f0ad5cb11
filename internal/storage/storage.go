package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

const (
	// DatabaseFile is the SQLite file name inside the data directory
	DatabaseFile = "elcairo.db"

	// MaxCompareDate is an upper bound for open-ended range queries
	MaxCompareDate int64 = math.MaxInt64

	saveBatchSize = 100
)

var (
	// ErrNotOpen is returned by operations on a closed store
	ErrNotOpen = errors.New("storage is not open")

	// ErrNoDatabase is returned when the database has not been populated yet
	ErrNoDatabase = errors.New("database does not exist")
)

// Order is the direction of a range query
type Order int

const (
	Descending Order = iota
	Ascending
)

// String returns the SQL keyword of the order
func (o Order) String() string {
	if o == Ascending {
		return "ASC"
	}
	return "DESC"
}

// Store handles persistence of enriched events
type Store struct {
	db      *gorm.DB
	dataDir string
}

// ExpandDir expands a leading ~/ to the home directory
func ExpandDir(dataDir string) (string, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}
	return dataDir, nil
}

// DatabasePath returns the location of the database file in dataDir
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, DatabaseFile)
}

// Exists reports whether the database file is present in dataDir
func Exists(dataDir string) bool {
	dataDir, err := ExpandDir(dataDir)
	if err != nil {
		return false
	}
	_, err = os.Stat(DatabasePath(dataDir))
	return err == nil
}

// Open opens or creates the database in dataDir and migrates the schema
func Open(dataDir string) (*Store, error) {
	dataDir, err := ExpandDir(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000", DatabasePath(dataDir))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{
		db:      db,
		dataDir: dataDir,
	}, nil
}

// OpenExisting opens the database only if it was already created
func OpenExisting(dataDir string) (*Store, error) {
	if !Exists(dataDir) {
		return nil, ErrNoDatabase
	}
	return Open(dataDir)
}

// DataDir returns the expanded data directory
func (s *Store) DataDir() string {
	return s.dataDir
}

// Close releases the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return ErrNotOpen
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	s.db = nil
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// SaveEvents upserts events in one transaction.
// imagePaths maps event IDs to downloaded image files; missing IDs store "".
func (s *Store) SaveEvents(ctx context.Context, events []*event.EnrichedEvent, imagePaths map[string]string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertEvents(tx, events, imagePaths)
	})
	if err != nil {
		return fmt.Errorf("saving events: %w", err)
	}
	return nil
}

// ReplaceEvents swaps every stored event for events in one transaction.
// On any failure, cancellation included, the previous rows are kept.
func (s *Store) ReplaceEvents(ctx context.Context, events []*event.EnrichedEvent, imagePaths map[string]string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Event{}).Error; err != nil {
			return fmt.Errorf("clearing events: %w", err)
		}
		return insertEvents(tx, events, imagePaths)
	})
	if err != nil {
		return fmt.Errorf("replacing events: %w", err)
	}
	return nil
}

func insertEvents(tx *gorm.DB, events []*event.EnrichedEvent, imagePaths map[string]string) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]Event, 0, len(events))
	for _, evt := range events {
		rows = append(rows, NewEvent(evt, imagePaths[evt.ID]))
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, saveBatchSize).Error
}

// Query returns the events whose compare_date lies in [minDate, maxDate],
// ordered by compare_date
func (s *Store) Query(ctx context.Context, minDate, maxDate int64, order Order) ([]Event, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	var rows []Event
	err := s.db.WithContext(ctx).
		Where("compare_date >= ? AND compare_date <= ?", minDate, maxDate).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "compare_date"}, Desc: order == Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "event_id"}, Desc: order == Descending}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return rows, nil
}

// All returns every stored event in ascending date order
func (s *Store) All(ctx context.Context) ([]Event, error) {
	return s.Query(ctx, 0, MaxCompareDate, Ascending)
}

// Count returns the number of stored events
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&Event{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}
