package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/curator"
	"github.com/RLabs-Inc/memory/internal/lifecycle"
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type zeroEmbedder struct{}

func (zeroEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

type fakeCurator struct {
	result *models.CurationResult
	err    error
}

func (f *fakeCurator) Curate(ctx context.Context, req models.CurationRequest) (*models.CurationResult, error) {
	return f.result, f.err
}

func newTestEngine(t *testing.T, cur *fakeCurator, managerEnabled bool) (*Engine, *store.Store) {
	t.Helper()
	root := t.TempDir()
	s, err := store.Open(root, root, store.ModeCentral)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	mgr := lifecycle.NewManager(s, silentLogger(), true)
	var c curator.Curator
	if cur != nil {
		c = cur
	}
	eng := New(s, zeroEmbedder{}, mgr, c, managerEnabled, silentLogger())
	return eng, s
}

func TestGetContext_FirstTurnReturnsPrimerNotRetrieval(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	_, err = pdb.AppendSummary("s0", "Fixed dedup bug yesterday")
	require.NoError(t, err)
	_, err = pdb.AppendSnapshot("Working on retrieval")
	require.NoError(t, err)

	resp, err := eng.GetContext(context.Background(), models.ContextRequest{
		SessionID: "s1", ProjectID: "p", CurrentMessage: "hello",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Memories)
	assert.Contains(t, resp.Formatted, "Fixed dedup bug yesterday")
	assert.Contains(t, resp.Formatted, "Working on retrieval")

	session, err := pdb.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, session.MessageCount)
}

func TestGetContext_FirstTurnAppliesDecayPass(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	m := &models.Memory{
		ID: "m1", ProjectID: "p", ContextType: models.ContextTypeTechnical,
		Headline: "legacy helper", FadeRate: 0.1, ImportanceWeight: 0.6, RetrievalWeight: 0.6,
	}
	m.ApplyDefaults()
	require.NoError(t, m.Validate())
	require.NoError(t, pdb.InsertMemory(m))

	_, err = eng.GetContext(context.Background(), models.ContextRequest{
		SessionID: "s1", ProjectID: "p", CurrentMessage: "hello",
	})
	require.NoError(t, err)

	refetched, err := pdb.GetMemory("m1")
	require.NoError(t, err)
	assert.Equal(t, 1, refetched.SessionsSinceSurfaced, "decay must run once at session start")
	assert.InDelta(t, 0.5, refetched.RetrievalWeight, 1e-9)
}

func TestGetContext_FirstTurnSkipsDecayWhenManagerDisabled(t *testing.T) {
	eng, s := newTestEngine(t, nil, false)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	m := &models.Memory{
		ID: "m1", ProjectID: "p", ContextType: models.ContextTypeTechnical,
		Headline: "legacy helper", FadeRate: 0.1, ImportanceWeight: 0.6, RetrievalWeight: 0.6,
	}
	m.ApplyDefaults()
	require.NoError(t, m.Validate())
	require.NoError(t, pdb.InsertMemory(m))

	_, err = eng.GetContext(context.Background(), models.ContextRequest{
		SessionID: "s1", ProjectID: "p", CurrentMessage: "hello",
	})
	require.NoError(t, err)

	refetched, err := pdb.GetMemory("m1")
	require.NoError(t, err)
	assert.Equal(t, 0, refetched.SessionsSinceSurfaced, "MEMORY_MANAGER_ENABLED=false must gate decay same as reconciliation")
	assert.InDelta(t, 0.6, refetched.RetrievalWeight, 1e-9)
}

func TestGetContext_SecondTurnRunsRetrievalOverCorpus(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	m := &models.Memory{
		ID: "m1", ProjectID: "p", ContextType: models.ContextTypeDebug,
		Headline: "retrieval dedup bug", Content: "fixed the dedup gatekeeper logic for retrieval precision handling",
		TriggerPhrases: []string{"debugging retrieval"},
		SemanticTags:   []string{"retrieval", "gatekeeper", "precision"},
		ImportanceWeight: 0.8,
	}
	m.ApplyDefaults()
	require.NoError(t, m.Validate())
	require.NoError(t, pdb.InsertMemory(m))

	session, err := pdb.EnsureSession("s1")
	require.NoError(t, err)
	session.MessageCount = 1
	require.NoError(t, pdb.PutSession(session))

	resp, err := eng.GetContext(context.Background(), models.ContextRequest{
		SessionID: "s1", ProjectID: "p", CurrentMessage: "I'm debugging retrieval precision again",
	})
	require.NoError(t, err)
	require.Len(t, resp.Memories, 1)
	assert.Equal(t, "m1", resp.Memories[0].ID)
}

func TestGetContext_DedupesAlreadyInjectedWithinSession(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	m := &models.Memory{
		ID: "m1", ProjectID: "p", ContextType: models.ContextTypeDebug,
		Headline: "retrieval dedup bug", Content: "fixed the dedup gatekeeper logic for retrieval precision handling",
		TriggerPhrases:   []string{"debugging retrieval"},
		SemanticTags:     []string{"retrieval", "gatekeeper", "precision"},
		ImportanceWeight: 0.8,
	}
	m.ApplyDefaults()
	require.NoError(t, m.Validate())
	require.NoError(t, pdb.InsertMemory(m))

	session, err := pdb.EnsureSession("s1")
	require.NoError(t, err)
	session.MessageCount = 1
	require.NoError(t, pdb.PutSession(session))

	req := models.ContextRequest{SessionID: "s1", ProjectID: "p", CurrentMessage: "I'm debugging retrieval precision again"}
	first, err := eng.GetContext(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Memories, 1)

	second, err := eng.GetContext(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, second.Memories, "a memory already surfaced this session must not surface again")
}

func TestProcessMessage_IncrementsSessionCount(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)
	_, err = pdb.EnsureSession("s1")
	require.NoError(t, err)

	resp, err := eng.ProcessMessage(models.ProcessRequest{SessionID: "s1", ProjectID: "p"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.MessageCount)

	resp, err = eng.ProcessMessage(models.ProcessRequest{SessionID: "s1", ProjectID: "p"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.MessageCount)
}

func TestRunCuration_PersistsMemoriesAndRunsManagementPass(t *testing.T) {
	cur := &fakeCurator{result: &models.CurationResult{
		Memories: []models.Memory{
			{ProjectID: "p", ContextType: models.ContextTypeDecision, Headline: "use postgres", Content: "decided on postgres"},
		},
		SessionSummary: "discussed database choice",
	}}
	eng, s := newTestEngine(t, cur, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	eng.runCuration(models.CheckpointRequest{SessionID: "s1", ProjectID: "p", Trigger: models.TriggerManual})

	n, err := pdb.CountMemories()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	logCount, err := pdb.ManagementLogCount()
	require.NoError(t, err)
	assert.Equal(t, 1, logCount, "management pass should have run and logged since managerEnabled=true")

	summary, err := pdb.LatestSummary()
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "discussed database choice", summary.Summary)
}

func TestRunCuration_ManagerDisabledSkipsLifecyclePass(t *testing.T) {
	cur := &fakeCurator{result: &models.CurationResult{
		Memories: []models.Memory{
			{ProjectID: "p", ContextType: models.ContextTypeDecision, Headline: "use postgres", Content: "decided on postgres"},
		},
	}}
	eng, s := newTestEngine(t, cur, false)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	eng.runCuration(models.CheckpointRequest{SessionID: "s1", ProjectID: "p", Trigger: models.TriggerManual})

	n, err := pdb.CountMemories()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "memories are persisted regardless of managerEnabled")

	logCount, err := pdb.ManagementLogCount()
	require.NoError(t, err)
	assert.Equal(t, 0, logCount, "no management log when managerEnabled=false")
}

func TestRunCuration_NoCuratorLogsFailedPass(t *testing.T) {
	eng, s := newTestEngine(t, nil, true)
	pdb, err := s.OpenProject("p")
	require.NoError(t, err)

	eng.runCuration(models.CheckpointRequest{SessionID: "s1", ProjectID: "p", Trigger: models.TriggerManual})

	logCount, err := pdb.ManagementLogCount()
	require.NoError(t, err)
	assert.Equal(t, 1, logCount)
}
