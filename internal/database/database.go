package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// OpenDB opens and verifies a connection pool for the given driver and DSN.
// Both the primary and the read-only pools go through here.
func OpenDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// a single connection keeps ":memory:" databases coherent
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// InsertID runs an INSERT written with '?' placeholders and returns the new
// row id. Postgres has no LastInsertId, so it gets a RETURNING clause instead.
func InsertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	if sqlx.BindType(ext.DriverName()) == sqlx.DOLLAR {
		var id int64
		q := ext.Rebind(strings.TrimRight(strings.TrimSpace(query), ";") + " RETURNING id")
		if err := ext.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ForUpdate returns the row-lock suffix for a SELECT inside a transaction.
// SQLite locks the whole database on write and has no such clause.
func ForUpdate(driver string) string {
	switch driver {
	case DriverPostgres, DriverMySQL:
		return " FOR UPDATE"
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique/primary key conflict on
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
