// Package store persists fixture rows in a relational database and reads them back as
// records for chart generation.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/types"
)

// ErrEmpty is returned by FetchAll when the table holds no rows.
var ErrEmpty = errors.New("no fixtures stored")

// Fixture is one persisted row of the fixtures profile.
type Fixture struct {
	ID uint    `gorm:"primaryKey" json:"id"`
	F1 float64 `json:"f1"`
	F2 float64 `json:"f2"`
	F3 float64 `json:"f3"`
	F4 string  `gorm:"size:50" json:"f4"`
	F5 bool    `json:"f5"`
}

// TableName pins the table name independent of gorm's pluralisation.
func (Fixture) TableName() string { return "fixtures" }

// Record converts the row to the generic record form.
func (f Fixture) Record() types.Record {
	return types.Record{"id": int(f.ID), "f1": f.F1, "f2": f.F2, "f3": f.F3, "f4": f.F4, "f5": f.F5}
}

// FromRecord builds a row from a fixtures-profile record. Missing fields stay zero.
func FromRecord(r types.Record) Fixture {
	var f Fixture
	f.F1, _ = r.Float("f1")
	f.F2, _ = r.Float("f2")
	f.F3, _ = r.Float("f3")
	f.F4, _ = r.String("f4")
	f.F5, _ = r.Bool("f5")
	return f
}

// Store wraps a gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn. postgres:// and postgresql:// URLs use the postgres driver, a
// "sqlite://" prefix is stripped and anything else is treated as a sqlite file path.
func Open(dsn string) (*Store, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db)
}

// New wraps an existing handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Fixture{}); err != nil {
		return nil, fmt.Errorf("migrate fixtures: %w", err)
	}
	return &Store{db: db}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("empty database url")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite:///"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:///")), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Count returns the number of stored fixtures.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Fixture{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count fixtures: %w", err)
	}
	return n, nil
}

// BulkCreate inserts records in one batch.
func (s *Store) BulkCreate(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]Fixture, 0, len(records))
	for _, r := range records {
		rows = append(rows, FromRecord(r))
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("insert fixtures: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts the records only when the table is empty. It reports whether rows
// were inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, records []types.Record) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logging.Debugf("[store] %d fixtures present, seeding skipped", n)
		return false, nil
	}
	if err := s.BulkCreate(ctx, records); err != nil {
		return false, err
	}
	logging.Infof("[store] seeded %d fixtures", len(records))
	return true, nil
}

// FetchAll returns every stored fixture as a record, ordered by id. ErrEmpty is returned
// when there is nothing to read.
func (s *Store) FetchAll(ctx context.Context) ([]types.Record, error) {
	var rows []Fixture
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	out := make([]types.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

// Source adapts a Store to the pipeline's record source interface.
type Source struct {
	Store *Store
}

// Records reads all stored fixtures. An empty table yields no records and no error so
// the pipeline reports the batch as skipped.
func (s Source) Records() ([]types.Record, error) {
	recs, err := s.Store.FetchAll(context.Background())
	if errors.Is(err, ErrEmpty) {
		return nil, nil
	}
	return recs, err
}

// Name identifies the source in logs.
func (s Source) Name() string { return "store(fixtures)" }
