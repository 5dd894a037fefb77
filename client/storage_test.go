package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	fs := NewFileStorage(path)

	st, err := fs.Load()
	require.NoError(t, err, "missing file is an empty state")
	assert.Empty(t, st.Sessions)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	want := State{
		CurrentID: "s1",
		Sessions: []Session{{
			ID: "s1", Title: "Resume", CreatedAt: at, UpdatedAt: at,
			Messages: []models.Message{{ID: "m1", Role: models.RoleUser, Content: "hi", Timestamp: at, Status: models.MessageStatusFailed}},
		}},
	}
	require.NoError(t, fs.Save(want))

	got, err := fs.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := NewFileStorage(path).Load()
	assert.Error(t, err)
}
