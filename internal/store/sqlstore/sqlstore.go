// Package sqlstore keeps extraction records in a SQL database through gorm.
// SQLite is the default for local runs; Postgres is used when a DSN points at one.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/store"
)

// Options configures the database connection.
type Options struct {
	Driver          string // sqlite or postgres
	DSN             string // file path for sqlite, connection string for postgres
	LogLevel        string // silent, error, warn, info
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Row is the timecard_results table.
type Row struct {
	ID            uint           `gorm:"primaryKey"`
	ImageURL      string         `gorm:"not null"`
	ExtractedData datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"index"`
}

func (Row) TableName() string { return "timecard_results" }

// Repo implements store.RecordRepo.
type Repo struct {
	db *gorm.DB
}

// Open connects, tunes the pool and migrates the table.
func Open(opts Options) (*Repo, error) {
	dialector, err := dialect(opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel(opts.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get sql.DB: %w", err)
	}
	maxOpen, maxIdle := opts.MaxOpenConns, opts.MaxIdleConns
	if strings.EqualFold(opts.Driver, "sqlite") || opts.Driver == "" {
		// sqlite allows one writer at a time
		maxOpen, maxIdle = 1, 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&Row{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

func dialect(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite":
		if opts.DSN == "" {
			return nil, errors.New("sqlstore: sqlite path is required")
		}
		if dir := filepath.Dir(opts.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlstore: create db dir %s: %w", dir, err)
			}
		}
		return sqlite.Open(opts.DSN), nil
	case "postgres", "postgresql":
		if opts.DSN == "" {
			return nil, errors.New("sqlstore: postgres dsn is required")
		}
		return postgres.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("sqlstore: unknown driver %q", opts.Driver)
	}
}

func logLevel(s string) gormlogger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (r *Repo) Insert(ctx context.Context, rec model.NewRecord) (model.Record, error) {
	row := Row{ImageURL: rec.ImageURL, ExtractedData: datatypes.JSON(rec.Data)}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Record{}, fmt.Errorf("sqlstore: insert: %w", err)
	}
	return row.record(), nil
}

func (r *Repo) List(ctx context.Context, q store.Query) ([]model.Record, error) {
	var rows []Row
	tx := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list: %w", err)
	}
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (model.Record, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	var row Row
	err = r.db.WithContext(ctx).First(&row, n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("sqlstore: get %s: %w", id, err)
	}
	return row.record(), nil
}

// Close releases the connection pool.
func (r *Repo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (row Row) record() model.Record {
	return model.Record{
		ID:        strconv.FormatUint(uint64(row.ID), 10),
		ImageURL:  row.ImageURL,
		Data:      []byte(row.ExtractedData),
		CreatedAt: row.CreatedAt,
	}
}
