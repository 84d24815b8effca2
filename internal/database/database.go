// Package database opens the shared GORM handle and owns the schema.
//
// Lifecycle: Open once at startup, hand the *gorm.DB to every repository,
// and Close after the HTTP server has drained. Repositories acquire pool
// connections per call through db.WithContext and release them on return.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tienda/internal/config"
	"tienda/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ActiveCartIndex is the partial unique index behind "one active cart per user".
const ActiveCartIndex = "idx_carritos_usuario_activo"

// Open connects to the configured database and sizes its connection pool.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite serializes writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info().Str("driver", cfg.Driver).Int("max_open_conns", sqlDB.Stats().MaxOpenConnections).Msg("database connected")
	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Migrate creates or updates every table and index the application needs.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.User{}, &models.Cart{}, &models.CartLine{}); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	// Both PostgreSQL and SQLite support partial indexes with this syntax.
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON carritos (usuario_id) WHERE estado = '%s'",
		ActiveCartIndex, models.CartStatusActive,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", ActiveCartIndex, err)
	}
	return nil
}

// Ping checks that the database answers within timeout.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
