package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemporaryPrefix marks a session id minted by a client that the server has
// not acknowledged yet.
const TemporaryPrefix = "temp_"

// IsTemporaryID reports whether id names a not-yet-persisted session.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryPrefix)
}

// NewTemporaryID mints a temporary session id. The timestamp orders ids and the
// random suffix keeps rapid creations apart.
func NewTemporaryID(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", TemporaryPrefix, now.UnixNano(), uuid.NewString()[:8])
}

// NewID mints a message or session id.
func NewID() string {
	return uuid.NewString()
}
