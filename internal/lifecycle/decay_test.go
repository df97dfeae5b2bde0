package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/models"
)

func TestApplyDecay_FloorsAtMinimum(t *testing.T) {
	s := openTestStore(t)
	pdb, err := s.OpenProject("proj1")
	require.NoError(t, err)

	m := &models.Memory{
		ID: "m1", ProjectID: "proj1", ContextType: models.ContextTypeTechnical, Headline: "fading note",
		FadeRate:        0.5,
		RetrievalWeight: 0.15,
		Status:          models.StatusActive,
	}
	insertTestMemory(t, pdb, m)

	touched, err := ApplyDecay(pdb)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	refetched, err := pdb.GetMemory("m1")
	require.NoError(t, err)
	assert.Equal(t, minRetrievalWeight, refetched.RetrievalWeight)
}

func TestMemoryMentioned_MatchesDomainOrFeature(t *testing.T) {
	m := &models.Memory{Domain: "billing", Feature: "invoices"}
	assert.True(t, memoryMentioned("shipped the billing reconciliation job", m))
	assert.True(t, memoryMentioned("finished the invoices export", m))
	assert.False(t, memoryMentioned("unrelated session notes", m))
}

func TestContainsReversalLanguage(t *testing.T) {
	assert.True(t, containsReversalLanguage("We switched to Postgres instead of MySQL"))
	assert.False(t, containsReversalLanguage("We continue to use Postgres"))
}
