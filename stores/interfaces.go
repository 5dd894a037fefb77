package stores

import (
	"context"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// User is the minimal view of an account the chat core needs: who owns a
// session and what the assistant should know about them.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"index"`
	Role      string `gorm:"size:32;default:'student'"` // "student", "mentor", "admin"
	Bio       string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatSession is a persisted conversation. The message sequence is stored as a
// single encoded text column; Messages always holds the decoded form.
type ChatSession struct {
	ID           string           `gorm:"primaryKey;size:64"`
	UserID       string           `gorm:"index;not null;size:64"`
	Title        string           `gorm:"type:text"`
	MessagesJSON string           `gorm:"column:messages;type:text"`
	Messages     []models.Message `gorm:"-"`
	MessageCount int              `gorm:"default:0"`
	Version      int              `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time `gorm:"index"`
	EndedAt      *time.Time
}

// BeforeCreate assigns a server-issued id. Ids are unique at the source, so
// clients never need to disambiguate them.
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

// BeforeSave encodes Messages into MessagesJSON
func (s *ChatSession) BeforeSave(tx *gorm.DB) error {
	encoded, err := EncodeMessages(s.Messages)
	if err != nil {
		return err
	}
	s.MessagesJSON = encoded
	s.MessageCount = len(s.Messages)
	return nil
}

// AfterFind decodes MessagesJSON, defaulting to an empty sequence
func (s *ChatSession) AfterFind(tx *gorm.DB) error {
	s.Messages = DecodeMessagesOrEmpty(s.MessagesJSON)
	return nil
}

// View converts the record into its API shape.
func (s *ChatSession) View() models.SessionView {
	msgs := s.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	return models.SessionView{
		ID:           s.ID,
		UserID:       s.UserID,
		Title:        s.Title,
		Messages:     msgs,
		MessageCount: len(msgs),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		EndedAt:      s.EndedAt,
	}
}

// SessionStore interface for abstracting database operations
type SessionStore interface {
	// User operations
	FindUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, user *User) error

	// Session operations. Every lookup is scoped to the owning user.
	GetSession(ctx context.Context, id, userID string) (*ChatSession, error)
	CreateSession(ctx context.Context, session *ChatSession) error
	UpdateSession(ctx context.Context, session *ChatSession) error
	ListSessions(ctx context.Context, userID string) ([]ChatSession, error)
	EndSession(ctx context.Context, id, userID string, at time.Time) (*ChatSession, error)
	DeleteSession(ctx context.Context, id, userID string) error
	EndIdleSessions(ctx context.Context, cutoff, at time.Time) (int64, error)

	// Connection management
	Connect() error
	Close() error

	// Health check
	Ping() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres"
	Connection string            `json:"connection"` // connection string
	Options    map[string]string `json:"options"`    // additional options
	Logger     *zap.Logger       `json:"-"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}

// WithLogger routes database logs through logger
func (c *StoreConfig) WithLogger(logger *zap.Logger) *StoreConfig {
	c.Logger = logger
	return c
}
