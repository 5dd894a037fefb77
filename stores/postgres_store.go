package stores

import (
	"fmt"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config *StoreConfig) (*GormStore, error) {
	if config.Type != "postgres" {
		return nil, fmt.Errorf("invalid store type for PostgreSQL store: %s", config.Type)
	}

	dsn := config.Connection
	store := newGormStore(config, func() gorm.Dialector {
		return postgres.Open(dsn)
	})
	if v, ok := config.Options["max_conns"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid max_conns option %q: %w", v, err)
		}
		store.maxConns = n
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	return store, nil
}
