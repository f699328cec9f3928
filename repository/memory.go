package repository

import (
	"database/sql"
	"fmt"

	"github.com/Aashish23092/payslip-ledger/config"
)

// OpenMemory returns a migrated in-memory SQLite database. Every call gets a
// separate database.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open(config.DriverSQLite, ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one connection, otherwise each would see its own empty database
	db.SetMaxOpenConns(1)

	if err := Migrate(db, config.DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
