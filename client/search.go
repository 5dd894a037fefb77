package client

import (
	"sort"
	"strings"
)

// Search filters sessions by a case-insensitive substring of their title or
// message content. Title matches rank above content-only matches, then more
// recently updated sessions come first. An empty query matches nothing.
func Search(sessions []Session, query string) []Session {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	type hit struct {
		session Session
		inTitle bool
	}
	var hits []hit
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.Title), q) {
			hits = append(hits, hit{s, true})
			continue
		}
		for _, m := range s.Messages {
			if strings.Contains(strings.ToLower(m.Content), q) {
				hits = append(hits, hit{s, false})
				break
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.inTitle != b.inTitle {
			return a.inTitle
		}
		if !a.session.UpdatedAt.Equal(b.session.UpdatedAt) {
			return a.session.UpdatedAt.After(b.session.UpdatedAt)
		}
		return a.session.ID < b.session.ID
	})

	out := make([]Session, len(hits))
	for i, h := range hits {
		out[i] = h.session.clone()
	}
	return out
}
