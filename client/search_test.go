package client

import (
	"testing"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/google/go-cmp/cmp"
)

func TestSearch_Ranking(t *testing.T) {
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "content-new", Title: "Misc", UpdatedAt: base.Add(3 * time.Hour),
			Messages: []models.Message{{Role: models.RoleUser, Content: "what PYTHON libraries matter?"}}},
		{ID: "title-old", Title: "Python Interview Prep", UpdatedAt: base},
		{ID: "title-new", Title: "Learning python", UpdatedAt: base.Add(time.Hour)},
		{ID: "miss", Title: "Resume", UpdatedAt: base.Add(5 * time.Hour),
			Messages: []models.Message{{Role: models.RoleUser, Content: "java"}}},
		{ID: "title-tie-b", Title: "python b", UpdatedAt: base},
		{ID: "title-tie-a", Title: "python a", UpdatedAt: base},
	}

	var got []string
	for _, s := range Search(sessions, "  Python ") {
		got = append(got, s.ID)
	}
	want := []string{"title-new", "title-old", "title-tie-a", "title-tie-b", "content-new"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	sessions := []Session{{ID: "a", Title: "anything"}}
	if got := Search(sessions, "   "); got != nil {
		t.Errorf("Expected no results for empty query, got %v", got)
	}
}

func TestSearch_Pure(t *testing.T) {
	sessions := []Session{{ID: "a", Title: "Data Science", Messages: []models.Message{{Content: "x"}}}}
	first := Search(sessions, "data")
	first[0].Messages[0].Content = "changed"
	if diff := cmp.Diff(Search(sessions, "data"), Search(sessions, "data")); diff != "" {
		t.Errorf("Search is not deterministic:\n%s", diff)
	}
	if sessions[0].Messages[0].Content != "x" {
		t.Error("results alias the input")
	}
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc123", "abc123"},
		{"abc123~1", "abc123"},
		{"abc123~12", "abc123"},
		{"abc~x", "abc~x"},
		{"abc~", "abc~"},
		{"~1", "~1"},
		{"temp_1700_ab12cd34", "temp_1700_ab12cd34"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalID(tt.in); got != tt.want {
			t.Errorf("CanonicalID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
