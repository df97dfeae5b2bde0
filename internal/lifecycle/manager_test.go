package lifecycle

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/models"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerRun_ReconcilesAndAppendsSuccessfulLog(t *testing.T) {
	s := openTestStore(t)
	pdb, err := s.OpenProject("proj1")
	require.NoError(t, err)

	old := &models.Memory{ID: "old1", ProjectID: "proj1", ContextType: models.ContextTypeArchitecture, Headline: "old design"}
	insertTestMemory(t, pdb, old)

	oldID := "old1"
	newMem := &models.Memory{ID: "new1", ProjectID: "proj1", ContextType: models.ContextTypeArchitecture, Headline: "new design", Supersedes: &oldID}
	insertTestMemory(t, pdb, newMem)

	mgr := NewManager(s, silentLogger(), true)
	log, err := mgr.Run("proj1", []*models.Memory{newMem}, "shipped the new design", "", 3)
	require.NoError(t, err)
	assert.True(t, log.Success)
	assert.Equal(t, 1, log.Superseded)
	assert.Equal(t, 1, log.Processed)
}

func TestManagerRun_PersonalDisabledSkipsPrimerMaintenance(t *testing.T) {
	s := openTestStore(t)
	pdb, err := s.OpenProject(models.GlobalProjectID)
	require.NoError(t, err)

	personal := &models.Memory{
		ID: "fact1", ProjectID: models.GlobalProjectID,
		ContextType: models.ContextTypePersonal, Scope: models.ScopeGlobal,
		Headline: "my name is Alex",
	}
	insertTestMemory(t, pdb, personal)

	mgr := NewManager(s, silentLogger(), false)
	log, err := mgr.Run(models.GlobalProjectID, []*models.Memory{personal}, "", "", 1)
	require.NoError(t, err)
	assert.True(t, log.Success)

	primer, err := s.ReadPrimer()
	require.NoError(t, err)
	assert.Nil(t, primer, "primer should not have been created while personalEnabled=false")
}

func TestManagerRun_PersonalEnabledMergesPrimerWorthyFact(t *testing.T) {
	s := openTestStore(t)
	pdb, err := s.OpenProject(models.GlobalProjectID)
	require.NoError(t, err)

	personal := &models.Memory{
		ID: "fact1", ProjectID: models.GlobalProjectID,
		ContextType: models.ContextTypePersonal, Scope: models.ScopeGlobal,
		Headline: "my name is Alex",
	}
	insertTestMemory(t, pdb, personal)

	mgr := NewManager(s, silentLogger(), true)
	_, err = mgr.Run(models.GlobalProjectID, []*models.Memory{personal}, "", "", 1)
	require.NoError(t, err)

	primer, err := s.ReadPrimer()
	require.NoError(t, err)
	require.NotNil(t, primer)
	assert.Contains(t, primer.Content, "my name is Alex")
}
