package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver     string
	Postgres   PostgresOptions
	SQLitePath string
}

// Open connects to the configured datastore.
func Open(opts Options, log *logger.Logger) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverPostgres, "postgresql", "pgx":
		svc, err := NewPostgresService(opts.Postgres, log)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	case DriverSQLite, "sqlite3":
		svc, err := NewSQLiteService(opts.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsSQLite reports whether db talks to SQLite.
func IsSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == DriverSQLite
}
