package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/models"
)

func TestOpenProject_IsCachedAndIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root, root, ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	p1, err := s.OpenProject("proj1")
	require.NoError(t, err)
	p2, err := s.OpenProject("proj1")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	info, err := os.Stat(filepath.Join(root, "proj1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGlobal_UsesSentinelPathRegardlessOfMode(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root, root, ModeLocal)
	require.NoError(t, err)
	defer s.Close()

	pdb, err := s.Global()
	require.NoError(t, err)
	assert.Equal(t, models.GlobalProjectID, pdb.ProjectID)

	_, err = os.Stat(filepath.Join(root, "global"))
	assert.NoError(t, err)
}

func TestProjectIDs_ListsCentralDirsWithGlobalSentinel(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root, root, ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.OpenProject("proj1")
	require.NoError(t, err)
	_, err = s.Global()
	require.NoError(t, err)

	ids, err := s.ProjectIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"proj1", models.GlobalProjectID}, ids)
}

func TestProjectIDs_EmptyCentralRootReturnsNil(t *testing.T) {
	root := t.TempDir()
	// Open creates the central root but no project dirs yet, and the
	// index.db file itself should not be mistaken for a project dir.
	s, err := Open(root, root, ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.ProjectIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
