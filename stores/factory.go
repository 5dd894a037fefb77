package stores

import (
	"fmt"
)

// NewStore creates a new session store based on the configuration
func NewStore(config *StoreConfig) (*GormStore, error) {
	switch config.Type {
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedStore, config.Type)
	}
}

// PostgresDSN builds a PostgreSQL DSN from discrete connection parameters
func PostgresDSN(host, user, password, dbname string, port int) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
}
