package stores

import (
	"strings"

	"github.com/careerforge/careerforge/models"
)

// SanitizeHistory prepares a stored conversation for an AI provider.
// It handles two main issues:
// 1. Corrupted entries - messages with unknown roles, empty content, or a
//    failed-send marker never reach the provider
// 2. Windowing - only the last limit messages are sent (limit <= 0 keeps all),
//    and the window never starts with an assistant message
//
// Valid turn pattern: user -> assistant -> user -> ... (the newest user
// message is normally last).
func SanitizeHistory(msgs []models.Message, limit int) []models.Message {
	if len(msgs) == 0 {
		return []models.Message{}
	}

	clean := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Role.Valid() || m.Failed() || strings.TrimSpace(m.Content) == "" {
			continue
		}
		clean = append(clean, m)
	}

	if limit > 0 && len(clean) > limit {
		clean = clean[len(clean)-limit:]
	}

	start := 0
	for start < len(clean) && clean[start].Role != models.RoleUser {
		start++
	}
	return clean[start:]
}

// DetectCorruptedHistory checks if the history has any issues that would confuse a provider.
// Returns a list of issues found (empty if history is clean).
func DetectCorruptedHistory(msgs []models.Message) []string {
	issues := []string{}

	if len(msgs) == 0 {
		return issues
	}

	// Check 1: Does history start with a user message?
	if msgs[0].Role == models.RoleAssistant {
		issues = append(issues, "History starts with an assistant message")
	}

	// Check 2: Entries that cannot be sent
	for _, m := range msgs {
		switch {
		case !m.Role.Valid():
			issues = append(issues, "Message with unknown role '"+string(m.Role)+"'")
		case m.Failed():
			issues = append(issues, "Failed message persisted in history")
		case strings.TrimSpace(m.Content) == "":
			issues = append(issues, "Message with empty content")
		}
	}

	// Check 3: Consecutive messages of the same role
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Role == msgs[i].Role && msgs[i].Role.Valid() {
			issues = append(issues, "Two consecutive "+string(msgs[i].Role)+" messages")
		}
	}

	return issues
}
