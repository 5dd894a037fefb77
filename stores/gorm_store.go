package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore implements SessionStore on top of any GORM dialect. The SQLite and
// PostgreSQL constructors differ only in the dialector they open.
type GormStore struct {
	db        *gorm.DB
	dialector func() gorm.Dialector
	logger    *zap.Logger
	maxConns  int
}

func newGormStore(config *StoreConfig, dialector func() gorm.Dialector) *GormStore {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{
		dialector: dialector,
		logger:    logger.Named("store").With(zap.String("type", config.Type)),
	}
}

// Connect establishes the connection and migrates the schema
func (s *GormStore) Connect() error {
	db, err := gorm.Open(s.dialector(), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(s.logger), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if s.maxConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(s.maxConns)
	}

	s.db = db

	// Auto-migrate the schema
	if err := s.db.AutoMigrate(&User{}, &ChatSession{}, &ProviderAttempt{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

// DB exposes the underlying connection so sibling stores can share it
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *GormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *GormStore) Ping() error {
	if s.db == nil {
		return errNoConnection
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// FindUser loads a user by id
func (s *GormStore) FindUser(ctx context.Context, userID string) (*User, error) {
	if s.db == nil {
		return nil, errNoConnection
	}

	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return &user, nil
}

// SaveUser creates or replaces a user record
func (s *GormStore) SaveUser(ctx context.Context, user *User) error {
	if s.db == nil {
		return errNoConnection
	}
	return s.db.WithContext(ctx).Save(user).Error
}

// GetSession loads a session owned by userID
func (s *GormStore) GetSession(ctx context.Context, id, userID string) (*ChatSession, error) {
	if s.db == nil {
		return nil, errNoConnection
	}

	var session ChatSession
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &session, nil
}

// CreateSession persists a new session together with its messages
func (s *GormStore) CreateSession(ctx context.Context, session *ChatSession) error {
	if s.db == nil {
		return errNoConnection
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// UpdateSession writes the title, message sequence and end marker of session. The write
// only lands if the stored version still equals session.Version; otherwise
// another writer got there first and ErrVersionConflict is returned.
func (s *GormStore) UpdateSession(ctx context.Context, session *ChatSession) error {
	if s.db == nil {
		return errNoConnection
	}

	encoded, err := EncodeMessages(session.Messages)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res := s.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&ChatSession{}).
		Where("id = ? AND user_id = ? AND version = ?", session.ID, session.UserID, session.Version).
		Updates(map[string]interface{}{
			"title":         session.Title,
			"messages":      encoded,
			"message_count": len(session.Messages),
			"version":       session.Version + 1,
			"updated_at":    now,
			"ended_at":      session.EndedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update session %s: %w", session.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	session.MessagesJSON = encoded
	session.MessageCount = len(session.Messages)
	session.Version++
	session.UpdatedAt = now
	return nil
}

// ListSessions returns the sessions of a user, most recently updated first
func (s *GormStore) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	if s.db == nil {
		return nil, errNoConnection
	}

	var sessions []ChatSession
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return sessions, nil
}

// EndSession marks a session as ended without touching its update time
func (s *GormStore) EndSession(ctx context.Context, id, userID string, at time.Time) (*ChatSession, error) {
	if s.db == nil {
		return nil, errNoConnection
	}

	res := s.db.WithContext(ctx).Model(&ChatSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("ended_at", at)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to end session %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrSessionNotFound
	}
	return s.GetSession(ctx, id, userID)
}

// DeleteSession removes a session and its provider attempts
func (s *GormStore) DeleteSession(ctx context.Context, id, userID string) error {
	if s.db == nil {
		return errNoConnection
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&ChatSession{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete session %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Where("session_id = ?", id).Delete(&ProviderAttempt{}).Error; err != nil {
			return fmt.Errorf("failed to delete attempts for session %s: %w", id, err)
		}
		return nil
	})
}

// EndIdleSessions ends every open session not updated since cutoff
func (s *GormStore) EndIdleSessions(ctx context.Context, cutoff, at time.Time) (int64, error) {
	if s.db == nil {
		return 0, errNoConnection
	}

	res := s.db.WithContext(ctx).Model(&ChatSession{}).
		Where("ended_at IS NULL AND updated_at < ?", cutoff).
		UpdateColumn("ended_at", at)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to end idle sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
