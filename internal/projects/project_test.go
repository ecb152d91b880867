package projects

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 500, time.Local)

	p, err := New(dir, "", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Base(dir), p.Name)
	require.Equal(t, dir, p.Path)
	require.Equal(t, now.UTC().Truncate(time.Second), p.CreatedAt)
	_, err = uuid.Parse(p.ID)
	require.NoError(t, err)

	named, err := New(dir, "app", now)
	require.NoError(t, err)
	require.Equal(t, "app", named.Name)
	require.NotEqual(t, p.ID, named.ID)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("  ", "x", time.Now())
	require.ErrorContains(t, err, "path is required")
}

func TestErrors(t *testing.T) {
	require.Equal(t, `project not found: "p1"`, (&NotFoundError{ID: "p1"}).Error())
	require.Equal(t, "project already registered at /a (id=p1)", (&DuplicatePathError{Path: "/a", ExistingID: "p1"}).Error())
}
