package models

import "time"

// SessionView is a decoded session as returned by the session endpoints.
type SessionView struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	Messages     []Message  `json:"messages"`
	MessageCount int        `json:"messageCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

// SessionList is the data of GET /chat/sessions.
type SessionList struct {
	Sessions      []SessionView `json:"sessions"`
	TotalSessions int           `json:"totalSessions"`
}
