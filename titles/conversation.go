package titles

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/careerforge/careerforge/models"
)

type topic struct {
	label    string
	keywords []string
}

// topics is ordered; earlier entries win score ties.
var topics = []topic{
	{"Resume", []string{"resume", "résumé", "cv", "cover letter"}},
	{"Interview Prep", []string{"interview"}},
	{"Salary Negotiation", []string{"salary", "negotiat", "compensation"}},
	{"Data Science", []string{"data science", "data scientist", "machine learning", "data analy"}},
	{"Software Engineering", []string{"software", "programming", "developer", "coding"}},
	{"Product Management", []string{"product manag"}},
	{"UX Design", []string{"ux", "ui design", "designer"}},
	{"Career Change", []string{"career change", "switch career", "switching career", "changing career", "transition"}},
	{"Job Search", []string{"job search", "job hunt", "job application", "linkedin", "applying for"}},
	{"Networking", []string{"networking"}},
	{"Mentorship", []string{"mentor"}},
	{"Internships", []string{"internship"}},
	{"Leadership", []string{"leadership", "promotion", "team lead"}},
	{"Skill Building", []string{"certification", "course", "upskill", "bootcamp"}},
}

// DeriveFromConversation labels a session from its recent exchanges. Later
// user messages in the window weigh more than earlier ones.
func DeriveFromConversation(messages []models.Message) string {
	window := messages
	if len(window) > ConversationWindow {
		window = window[len(window)-ConversationWindow:]
	}

	scores := make([]int, len(topics))
	for i, m := range window {
		if m.Role != models.RoleUser {
			continue
		}
		content := strings.ToLower(m.Content)
		for t := range topics {
			if mentions(content, topics[t].keywords) {
				scores[t] += i + 1
			}
		}
	}

	first, second := -1, -1
	for t, s := range scores {
		if s == 0 {
			continue
		}
		switch {
		case first < 0 || s > scores[first]:
			first, second = t, first
		case second < 0 || s > scores[second]:
			second = t
		}
	}
	if first >= 0 {
		if second >= 0 {
			return truncate(topics[first].label + " & " + topics[second].label)
		}
		return topics[first].label
	}

	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Role != models.RoleUser {
			continue
		}
		if title := DeriveFromMessage(window[i].Content); title != Placeholder {
			return title
		}
	}
	return Placeholder
}

// mentions reports whether any keyword starts a word in content.
func mentions(content string, keywords []string) bool {
	for _, kw := range keywords {
		for from := 0; ; {
			idx := strings.Index(content[from:], kw)
			if idx < 0 {
				break
			}
			idx += from
			if idx == 0 {
				return true
			}
			prev, _ := utf8.DecodeLastRuneInString(content[:idx])
			if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
				return true
			}
			from = idx + len(kw)
		}
	}
	return false
}
