package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection backing a profile's giftem.db.
type DB struct {
	*sql.DB
}

// Open connects to the profile database in WAL mode. Blob writes are whole
// value replacements, so NORMAL sync is enough: a crash can lose the last
// write but never corrupt the file.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every store mirrors through this handle; one connection serialises
	// their writes instead of leaving them to fight over the busy timeout.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}
