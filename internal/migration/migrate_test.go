package migration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	vec := make([]float32, models.EmbeddingDimensions)
	vec[0] = 1
	return vec, nil
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeLegacyMemory(t *testing.T, root, projectID, id string, yamlBody string) {
	t.Helper()
	dir := filepath.Join(root, projectID, "memories")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\n" + yamlBody + "---\n\nLegacy memory body.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".md"), []byte(content), 0o644))
}

func TestRun_CanonicalizesLegacyContextTypeAndTemporalRelevance(t *testing.T) {
	root := t.TempDir()
	s, err := store.Open(root, root, store.ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	writeLegacyMemory(t, root, "proj1", "mem1", `id: mem1
project_id: proj1
context_type: bugfix
temporal_relevance: medium_term
importance_weight: 0.6
`)

	embedder := &fakeEmbedder{}
	result, err := Run(context.Background(), s, embedder, Options{}, silentLogger())
	require.NoError(t, err)
	require.Equal(t, 1, result.MemoriesScanned)
	require.Equal(t, 1, result.MemoriesMigrated)
	require.Equal(t, 1, result.EmbeddingsRegenerated)

	pdb, err := s.OpenProject("proj1")
	require.NoError(t, err)
	m, err := pdb.GetMemory("mem1")
	require.NoError(t, err)
	require.Equal(t, models.ContextTypeDebug, m.ContextType)
	require.Equal(t, models.TemporalMediumTerm, m.TemporalClass)
	require.Len(t, m.Embedding, models.EmbeddingDimensions)
}

func TestRun_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := store.Open(root, root, store.ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	writeLegacyMemory(t, root, "proj1", "mem1", `id: mem1
project_id: proj1
context_type: insight
importance_weight: 0.7
`)

	embedder := &fakeEmbedder{}
	_, err = Run(context.Background(), s, embedder, Options{}, silentLogger())
	require.NoError(t, err)

	second, err := Run(context.Background(), s, embedder, Options{}, silentLogger())
	require.NoError(t, err)
	require.Equal(t, 0, second.MemoriesMigrated)
	require.Equal(t, 0, second.EmbeddingsRegenerated)
}

func TestRun_BackfillsFadeRateOnLegacyRecordWithStatusAlreadySet(t *testing.T) {
	root := t.TempDir()
	s, err := store.Open(root, root, store.ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	// A pre-decay record: status is already set (as every real legacy
	// record's is by the time migration reads it back), and fade_rate is
	// absent entirely — the signal migration uses to detect it predates
	// decay. ApplyDefaults's own creation-time guard (fade_rate==0 &&
	// status=="") would never fire here, since status is non-empty.
	writeLegacyMemory(t, root, "proj1", "mem1", `id: mem1
project_id: proj1
context_type: technical
status: active
importance_weight: 0.5
retrieval_weight: 0.9
expires_after_sessions: 5
`)

	embedder := &fakeEmbedder{}
	result, err := Run(context.Background(), s, embedder, Options{}, silentLogger())
	require.NoError(t, err)
	require.Equal(t, 1, result.MemoriesMigrated)

	pdb, err := s.OpenProject("proj1")
	require.NoError(t, err)
	m, err := pdb.GetMemory("mem1")
	require.NoError(t, err)
	require.Equal(t, models.DefaultsByType[models.ContextTypeTechnical].FadeRate, m.FadeRate)
	require.Equal(t, m.ImportanceWeight, m.RetrievalWeight, "the legacy retrieval_weight must be dropped and re-derived by ApplyDefaults once fade_rate is backfilled")

	raw, _, err := pdb.ReadRawMemory("mem1")
	require.NoError(t, err)
	require.NotContains(t, raw, "expires_after_sessions")
}

func TestRun_DeletesObsoleteFields(t *testing.T) {
	root := t.TempDir()
	s, err := store.Open(root, root, store.ModeCentral)
	require.NoError(t, err)
	defer s.Close()

	writeLegacyMemory(t, root, "proj1", "mem1", `id: mem1
project_id: proj1
context_type: technical
importance_weight: 0.5
emotional_resonance: 0.3
knowledge_domain: backend
component: api
`)

	embedder := &fakeEmbedder{}
	_, err = Run(context.Background(), s, embedder, Options{}, silentLogger())
	require.NoError(t, err)

	pdb, err := s.OpenProject("proj1")
	require.NoError(t, err)
	raw, _, err := pdb.ReadRawMemory("mem1")
	require.NoError(t, err)
	require.NotContains(t, raw, "emotional_resonance")
	require.NotContains(t, raw, "knowledge_domain")
	require.NotContains(t, raw, "component")
}
