package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/timmy/memeverse/internal/config"
	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the catalog database described by cfg and runs migrations.
// Parameters:
//   - cfg: database configuration including driver and connection settings.
//
// Returns:
//   - *gorm.DB: initialized database handle.
//   - error: non-nil if connection or migration fails.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	ctx := logger.SetComponent(context.Background(), "db")

	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = openPostgres(cfg, gormConfig)
	case "sqlite", "":
		db, err = openSQLite(cfg.DSN(), gormConfig)
	default:
		logger.CtxWarn(ctx, "Unknown database driver %q, falling back to sqlite", cfg.Driver)
		db, err = openSQLite(cfg.DSN(), gormConfig)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	logger.With(logger.Fields{"driver": cfg.Driver, "auto_migrate": cfg.AutoMigrate}).
		Info(ctx, "Database ready")
	return db, nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Meme{},
		&domain.DataSource{},
		&domain.IngestJob{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// OpenSQLite opens a SQLite database at path, creating its directory.
// ":memory:" and "file:" DSNs are passed through untouched.
func OpenSQLite(path string) (*gorm.DB, error) {
	return openSQLite(path, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
}

func openPostgres(cfg *config.DatabaseConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	// Simple protocol keeps transaction poolers (pgbouncer, supabase :6543) working.
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

func openSQLite(dsn string, gormConfig *gorm.Config) (*gorm.DB, error) {
	if dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	return db, nil
}
