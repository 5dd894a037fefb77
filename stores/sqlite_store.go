package stores

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(config *StoreConfig) (*GormStore, error) {
	if config.Type != "sqlite" {
		return nil, fmt.Errorf("invalid store type for SQLite store: %s", config.Type)
	}

	path := config.Connection
	store := newGormStore(config, func() gorm.Dialector {
		return sqlite.Open(path)
	})
	// SQLite serializes writers; one connection avoids "database is locked".
	store.maxConns = 1

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	return store, nil
}

// NewSQLiteStoreSimple creates a new SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*GormStore, error) {
	config := NewStoreConfig("sqlite", dbPath)
	return NewSQLiteStore(config)
}
