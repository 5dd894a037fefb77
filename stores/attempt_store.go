package stores

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptSucceeded = "success"
	AttemptFailed    = "error"
)

// ProviderAttempt records one call to an AI provider while answering a chat
// turn. A turn that fell back across providers leaves one row per provider.
type ProviderAttempt struct {
	ID         uint              `gorm:"primarykey" json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
	SessionID  string            `gorm:"index:idx_attempt_session;size:64" json:"session_id"`
	UserID     string            `gorm:"index;size:64" json:"user_id"`
	Provider   string            `gorm:"not null" json:"provider"`
	Model      string            `json:"model,omitempty"`
	Status     string            `gorm:"not null" json:"status"` // success, error
	Error      string            `gorm:"type:text" json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Details    datatypes.JSONMap `gorm:"type:json" json:"details,omitempty"`
}

// AttemptStore interface for provider attempt persistence
type AttemptStore interface {
	// SaveAttempt saves a single attempt
	SaveAttempt(ctx context.Context, attempt *ProviderAttempt) error

	// AttemptsForSession retrieves the attempts of a session, oldest first
	AttemptsForSession(ctx context.Context, sessionID string) ([]ProviderAttempt, error)

	// DeleteAttemptsBefore prunes attempts older than cutoff
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GORMAttemptStore implements AttemptStore for SQLite/PostgreSQL via GORM
type GORMAttemptStore struct {
	db *gorm.DB
}

// NewGORMAttemptStore creates an attempt store from an existing GORM database connection
func NewGORMAttemptStore(db *gorm.DB) (*GORMAttemptStore, error) {
	if db == nil {
		return nil, errNoConnection
	}

	if err := db.AutoMigrate(&ProviderAttempt{}); err != nil {
		return nil, fmt.Errorf("failed to migrate provider_attempts table: %w", err)
	}

	return &GORMAttemptStore{db: db}, nil
}

// SaveAttempt saves a single attempt
func (s *GORMAttemptStore) SaveAttempt(ctx context.Context, attempt *ProviderAttempt) error {
	return s.db.WithContext(ctx).Create(attempt).Error
}

// AttemptsForSession retrieves the attempts of a session, oldest first
func (s *GORMAttemptStore) AttemptsForSession(ctx context.Context, sessionID string) ([]ProviderAttempt, error) {
	var attempts []ProviderAttempt
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&attempts).Error
	return attempts, err
}

// DeleteAttemptsBefore prunes attempts older than cutoff
func (s *GORMAttemptStore) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&ProviderAttempt{})
	return res.RowsAffected, res.Error
}
