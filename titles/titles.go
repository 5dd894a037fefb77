// Package titles turns conversation content into short display labels.
//
// Every function here is pure: the same input always yields the same title.
package titles

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/careerforge/careerforge/models"
)

const (
	// Placeholder is the label of a session nothing meaningful could be derived for.
	Placeholder = "New Career Session"

	// MaxLength bounds a derived title, in runes, including the ellipsis.
	MaxLength = 50

	// MinMessagesForUpdate is the conversation length at which a placeholder
	// title is re-derived from the conversation instead of the first message.
	MinMessagesForUpdate = 4

	// ConversationWindow is how many trailing messages DeriveFromConversation reads.
	ConversationWindow = 6

	minMeaningfulRunes = 2
	ellipsis           = "..."
)

var placeholders = map[string]bool{
	"":                   true,
	"new career session": true,
	"new chat":           true,
	"new conversation":   true,
	"untitled":           true,
}

// IsPlaceholder reports whether title is one of the generic default labels.
func IsPlaceholder(title string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(title))]
}

// ShouldUpdateTitle reports whether a session titled current, holding
// messageCount messages, should get a conversation-derived title. A title that
// has moved away from the placeholder set is never replaced.
func ShouldUpdateTitle(current string, messageCount int) bool {
	return IsPlaceholder(current) && messageCount >= MinMessagesForUpdate
}

// Refresh returns the title a session should carry after its messages changed.
func Refresh(current string, messages []models.Message) string {
	if ShouldUpdateTitle(current, len(messages)) {
		return DeriveFromConversation(messages)
	}
	if !IsPlaceholder(current) {
		return current
	}
	for _, m := range messages {
		if m.Role == models.RoleUser {
			return DeriveFromMessage(m.Content)
		}
	}
	return Placeholder
}

// DeriveFromMessage extracts a title from a single user message.
func DeriveFromMessage(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	for _, sentence := range splitSentences(text) {
		core := stripFiller(sentence)
		core = strings.TrimRightFunc(core, isTrailingJunk)
		if countMeaningful(core) < minMeaningfulRunes {
			continue
		}
		return truncate(titleCase(core))
	}
	return Placeholder
}

// splitSentences cuts text after '.', '?', '!' when followed by a space or the
// end of text, so "Node.js" survives intact.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) && text[next] != ' ' {
			continue
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			out = append(out, s)
		}
		start = next
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// fillers are conversational openers carrying no topic. Longer phrases come
// before their prefixes so the most specific one is stripped.
var fillers = []string{
	"what is the best way to",
	"what's the best way to",
	"can you please help me with",
	"could you please help me with",
	"i have a question about",
	"i would like to know about",
	"i would like to know",
	"i need some help with",
	"i'd like to know about",
	"i'd like to know",
	"can you help me with",
	"could you help me with",
	"please help me with",
	"i need advice about",
	"i need advice on",
	"i want to know about",
	"i want to know",
	"i need help with",
	"i have a question",
	"can you help me",
	"could you help me",
	"good afternoon",
	"good morning",
	"good evening",
	"can you tell me",
	"could you tell me",
	"tell me about",
	"help me with",
	"how should i",
	"hello there",
	"hey there",
	"hi there",
	"thank you",
	"greetings",
	"how can i",
	"how do i",
	"could you",
	"would you",
	"can you",
	"how to",
	"please",
	"hello",
	"thanks",
	"okay",
	"hey",
	"hi",
	"ok",
	"so",
}

func stripFiller(s string) string {
	s = strings.TrimLeftFunc(s, isLeadingJunk)
	for changed := true; changed; {
		changed = false
		for _, f := range fillers {
			if len(s) < len(f) || !strings.EqualFold(s[:len(f)], f) {
				continue
			}
			if rest := s[len(f):]; rest != "" {
				r, _ := utf8.DecodeRuneInString(rest)
				if isWordRune(r) {
					continue
				}
			}
			s = strings.TrimLeftFunc(s[len(f):], isLeadingJunk)
			changed = true
			break
		}
	}
	return s
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func isLeadingJunk(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isTrailingJunk(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(".,;:!?-", r)
}

func countMeaningful(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

var minorWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true, "or": true,
	"nor": true, "for": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "by": true, "with": true, "vs": true, "via": true, "as": true,
}

// titleCase capitalizes words, keeps minor words lower-case after the first
// word, and leaves words with inner capitals ("AI", "iOS") alone.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case i > 0 && minorWords[lower]:
			words[i] = lower
		case w != lower:
			// already carries deliberate capitalization
		default:
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}

// truncate bounds s to MaxLength runes, cutting at a word boundary.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxLength {
		return s
	}
	limit := MaxLength - len(ellipsis)
	var b strings.Builder
	for _, w := range strings.Fields(s) {
		n := utf8.RuneCountInString(w)
		if b.Len() > 0 {
			n++
		}
		if utf8.RuneCountInString(b.String())+n > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	out := b.String()
	if out == "" {
		out = string([]rune(s)[:limit])
	}
	return strings.TrimRightFunc(out, isTrailingJunk) + ellipsis
}
