// Package sqlitedb opens SQLite databases with either registered driver.
package sqlitedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverModernc is the pure-Go driver (default).
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver.
	DriverMattn = "sqlite3"
)

// DSN builds a data source name with foreign keys, WAL and a busy timeout.
// The two drivers spell their pragmas differently.
func DSN(driver, path string) (string, error) {
	switch driver {
	case "", DriverModernc:
		return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	case DriverMattn:
		return "file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q", driver)
	}
}

// Driver normalizes an empty driver name to the default.
func Driver(driver string) string {
	if driver == "" {
		return DriverModernc
	}
	return driver
}

// Open creates the parent directory, opens the database and applies schema.
func Open(driver, path, schema string) (*sql.DB, error) {
	dsn, err := DSN(driver, path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open(Driver(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if schema != "" {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
