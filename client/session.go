package client

import (
	"strings"
	"time"

	"github.com/careerforge/careerforge/models"
)

// Session is a conversation as the client holds it. A temporary session lives
// only in memory until its first message round-trips.
type Session struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	EndedAt   *time.Time       `json:"endedAt,omitempty"`
}

// Temporary reports whether the server has not acknowledged the session yet
func (s Session) Temporary() bool {
	return models.IsTemporaryID(s.ID)
}

func (s Session) clone() Session {
	c := s
	c.Messages = append([]models.Message(nil), s.Messages...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return c
}

func fromView(v models.SessionView) Session {
	msgs := append([]models.Message{}, v.Messages...)
	return Session{
		ID:        v.ID,
		Title:     v.Title,
		Messages:  msgs,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
		EndedAt:   v.EndedAt,
	}
}

// CanonicalID strips the "~<n>" disambiguation suffix older clients appended
// to colliding ids. Server ids never carry one.
func CanonicalID(id string) string {
	i := strings.LastIndexByte(id, '~')
	if i <= 0 || i == len(id)-1 {
		return id
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:i]
}
