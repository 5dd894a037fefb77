package stores

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/careerforge/careerforge/models"
)

// EncodeMessages is the single place a message sequence becomes stored text.
func EncodeMessages(msgs []models.Message) (string, error) {
	if msgs == nil {
		msgs = []models.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	return string(data), nil
}

// DecodeMessages parses stored text back into a message sequence. Empty and
// null encodings decode to an empty sequence.
func DecodeMessages(raw string) ([]models.Message, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []models.Message{}, nil
	}
	var msgs []models.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return []models.Message{}, fmt.Errorf("failed to decode messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// DecodeMessagesOrEmpty never fails: a malformed encoding reads as no messages.
func DecodeMessagesOrEmpty(raw string) []models.Message {
	msgs, _ := DecodeMessages(raw)
	return msgs
}
