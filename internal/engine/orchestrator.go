// Package engine implements the Engine (Orchestrator): the three public
// operations — get_context, process_message, trigger_curation — that sit
// between the HTTP surface and the Store/Retrieval/Lifecycle/Curator
// components.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RLabs-Inc/memory/internal/curator"
	"github.com/RLabs-Inc/memory/internal/embedding"
	"github.com/RLabs-Inc/memory/internal/lifecycle"
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/privacy"
	"github.com/RLabs-Inc/memory/internal/retrieval"
	"github.com/RLabs-Inc/memory/internal/store"
)

// Engine is the Orchestrator. One instance per process, shared across
// every request.
type Engine struct {
	store     *store.Store
	embedder  embedding.Embedder
	lifecycle *lifecycle.Manager
	curator   curator.Curator
	logger    *slog.Logger
	caps      retrieval.Caps

	contextLocks  *keyedMutex
	curationLocks *keyedMutex
	injected      *injectedSets

	curationTimeout time.Duration
	managerEnabled  bool
	wg              sync.WaitGroup
}

// New builds an Engine. curator may be nil — trigger_curation then logs
// a failed management pass instead of dispatching (no curator configured
// is a valid deployment, not a crash). managerEnabled gates the lifecycle
// pass entirely (MEMORY_MANAGER_ENABLED) — when false, curated memories
// are persisted as-is with no reconciliation, decay, or primer maintenance.
func New(s *store.Store, embedder embedding.Embedder, mgr *lifecycle.Manager, c curator.Curator, managerEnabled bool, logger *slog.Logger) *Engine {
	return &Engine{
		store:           s,
		embedder:        embedder,
		lifecycle:       mgr,
		curator:         c,
		logger:          logger,
		caps:            retrieval.DefaultCaps(),
		contextLocks:    newKeyedMutex(),
		curationLocks:   newKeyedMutex(),
		injected:        newInjectedSets(),
		curationTimeout: 120 * time.Second,
		managerEnabled:  managerEnabled,
	}
}

func sessionKey(sessionID, projectID string) string { return projectID + "\x00" + sessionID }

// GetContext implements get_context (spec.md §4.4).
func (e *Engine) GetContext(ctx context.Context, req models.ContextRequest) (*models.ContextResponse, error) {
	key := sessionKey(req.SessionID, req.ProjectID)
	lock := e.contextLocks.get(key)
	lock.Lock()
	defer lock.Unlock()

	pdb, err := e.store.OpenProject(req.ProjectID)
	if err != nil {
		return nil, err
	}

	session, err := pdb.EnsureSession(req.SessionID)
	if err != nil {
		return nil, err
	}

	if session.MessageCount == 0 {
		if e.managerEnabled {
			if touched, err := lifecycle.ApplyDecay(pdb); err != nil {
				e.logger.Warn("get_context: decay pass failed", "project_id", req.ProjectID, "error", err)
			} else if touched > 0 {
				e.logger.Info("get_context: decay pass applied", "project_id", req.ProjectID, "touched", touched)
			}
		}
		return e.buildPrimerResponse(pdb)
	}

	return e.buildRetrievalResponse(ctx, pdb, req, key)
}

func (e *Engine) buildPrimerResponse(pdb *store.ProjectDB) (*models.ContextResponse, error) {
	primer, err := e.store.ReadPrimer()
	if err != nil {
		return nil, err
	}
	lastSummary, err := pdb.LatestSummary()
	if err != nil {
		return nil, err
	}
	latestSnapshot, err := pdb.LatestSnapshot()
	if err != nil {
		return nil, err
	}

	formatted := formatPrimer(time.Now(), primer, lastSummary, latestSnapshot)
	resp := &models.ContextResponse{Formatted: formatted}
	if primer != nil {
		resp.Primer = primer.Content
	}
	return resp, nil
}

func (e *Engine) buildRetrievalResponse(ctx context.Context, pdb *store.ProjectDB, req models.ContextRequest, sessKey string) (*models.ContextResponse, error) {
	var queryVec []float32
	vec, err := e.embedder.Embed(ctx, req.CurrentMessage)
	if err != nil {
		e.logger.Warn("embedder degraded, continuing without vector signal", "error", err)
	} else {
		queryVec = vec
	}

	corpus, err := e.loadCorpus(pdb)
	if err != nil {
		return nil, err
	}

	q := retrieval.Query{
		ProjectID:       req.ProjectID,
		Message:         req.CurrentMessage,
		Embedding:       queryVec,
		AlreadyInjected: e.injected.get(sessKey),
	}

	result, diag := retrieval.Select(corpus, q, e.caps)
	e.logger.Info("retrieval",
		"project_id", req.ProjectID, "session_id", req.SessionID,
		"candidates", diag.CandidateCount, "prefiltered", diag.PrefilteredCount,
		"relevant", diag.RelevantCount, "selected_project", diag.SelectedProjectCount,
		"selected_global", diag.SelectedGlobalCount, "backfilled", diag.BackfilledCount,
		"signals", diag.SignalActivations)

	formatted, views := formatMemoriesBlock(result.Selected)
	resp := &models.ContextResponse{Memories: views, Formatted: formatted}

	if len(result.Selected) == 0 {
		return resp, nil
	}

	ids := result.SelectedIDs()
	e.injected.union(sessKey, ids)

	sessionNumber, err := e.sessionNumber(pdb)
	if err != nil {
		e.logger.Warn("failed to compute session number for decay restore", "error", err)
	} else if err := lifecycle.RestoreOnSurface(pdb, ids, sessionNumber); err != nil {
		e.logger.Warn("failed to restore decay state on surfacing", "error", err)
	}

	return resp, nil
}

// loadCorpus reads project ∪ global active memories (spec.md §4.1).
func (e *Engine) loadCorpus(pdb *store.ProjectDB) ([]*models.Memory, error) {
	project, err := pdb.ActiveMemories()
	if err != nil {
		return nil, err
	}
	if pdb.ProjectID == models.GlobalProjectID {
		return project, nil
	}
	global, err := e.store.Global()
	if err != nil {
		return nil, err
	}
	globalMemories, err := global.ActiveMemories()
	if err != nil {
		return nil, err
	}
	return append(project, globalMemories...), nil
}

func (e *Engine) sessionNumber(pdb *store.ProjectDB) (int, error) {
	n, err := pdb.ManagementLogCount()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// ProcessMessage implements process_message (spec.md §4.4).
func (e *Engine) ProcessMessage(req models.ProcessRequest) (*models.ProcessResponse, error) {
	pdb, err := e.store.OpenProject(req.ProjectID)
	if err != nil {
		return nil, err
	}
	session, err := pdb.IncrementMessageCount(req.SessionID)
	if err != nil {
		return nil, err
	}
	return &models.ProcessResponse{MessageCount: session.MessageCount}, nil
}

// TriggerCuration implements trigger_curation (spec.md §4.4): fire-and-
// forget from the caller's perspective — the curator dispatch and
// lifecycle pass run in a tracked background goroutine so Shutdown can
// wait for in-flight work within a grace period.
func (e *Engine) TriggerCuration(req models.CheckpointRequest) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runCuration(req)
	}()
}

func (e *Engine) runCuration(req models.CheckpointRequest) {
	projKey := req.ProjectID
	lock := e.curationLocks.get(projKey)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.curationTimeout)
	defer cancel()

	pdb, err := e.store.OpenProject(req.ProjectID)
	if err != nil {
		e.logger.Error("trigger_curation: open project failed", "project_id", req.ProjectID, "error", err)
		return
	}

	sessionNumber, err := e.sessionNumber(pdb)
	if err != nil {
		e.logger.Error("trigger_curation: session number failed", "project_id", req.ProjectID, "error", err)
		sessionNumber = 0
	}

	logFailedPass := func(reason string) {
		if !e.managerEnabled {
			return
		}
		l := &models.ManagementLog{SessionNumber: sessionNumber, FailureReason: reason}
		if err := pdb.AppendManagementLog(l); err != nil {
			e.logger.Error("trigger_curation: failed to write management log", "project_id", req.ProjectID, "error", err)
		}
	}

	if e.curator == nil {
		e.logger.Warn("trigger_curation: no curator configured, logging failed pass", "project_id", req.ProjectID)
		logFailedPass("no curator configured")
		return
	}

	transcript, err := e.loadTranscript(req)
	if err != nil {
		e.logger.Error("trigger_curation: failed to load transcript", "error", err)
		logFailedPass(err.Error())
		return
	}

	result, err := e.curator.Curate(ctx, models.CurationRequest{
		ProjectID:  req.ProjectID,
		SessionID:  req.SessionID,
		Transcript: privacy.StripPrivateTags(transcript),
	})
	if err != nil {
		e.logger.Error("trigger_curation: curator failed", "project_id", req.ProjectID, "error", err)
		logFailedPass(err.Error())
		return
	}

	newMemories, err := e.persistCuratedMemories(pdb, result.Memories, sessionNumber)
	if err != nil {
		e.logger.Error("trigger_curation: persist failed", "project_id", req.ProjectID, "error", err)
		logFailedPass(err.Error())
		return
	}

	if result.SessionSummary != "" {
		if _, err := pdb.AppendSummary(req.SessionID, result.SessionSummary); err != nil {
			e.logger.Error("trigger_curation: append summary failed", "error", err)
		}
	}
	if result.Snapshot != "" {
		if _, err := pdb.AppendSnapshot(result.Snapshot); err != nil {
			e.logger.Error("trigger_curation: append snapshot failed", "error", err)
		}
	}

	e.runManagementPass(req.ProjectID, newMemories, result.SessionSummary, result.Snapshot, sessionNumber)

	if req.Trigger == models.TriggerSessionEnd {
		e.injected.clear(sessionKey(req.SessionID, req.ProjectID))
	}
}

func (e *Engine) runManagementPass(projectID string, newMemories []*models.Memory, summary, snapshot string, sessionNumber int) {
	if !e.managerEnabled {
		e.logger.Info("trigger_curation: management pass disabled, skipping", "project_id", projectID)
		return
	}
	if _, err := e.lifecycle.Run(projectID, newMemories, summary, snapshot, sessionNumber); err != nil {
		e.logger.Error("trigger_curation: lifecycle pass failed", "project_id", projectID, "error", err)
	}
}

// loadTranscript is a seam for wiring a transcript source (claude_session_id
// + cwd locate a JSONL transcript on disk in the real deployment). No
// transcript source is in scope here; the request's own fields are all
// that's available without a filesystem convention spec.md doesn't define.
func (e *Engine) loadTranscript(req models.CheckpointRequest) (string, error) {
	return fmt.Sprintf("session=%s project=%s cwd=%s", req.SessionID, req.ProjectID, req.Cwd), nil
}

func (e *Engine) persistCuratedMemories(pdb *store.ProjectDB, curated []models.Memory, sessionNumber int) ([]*models.Memory, error) {
	now := time.Now().Unix()
	out := make([]*models.Memory, 0, len(curated))
	for i := range curated {
		m := &curated[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.ApplyDefaults()
		if err := m.Validate(); err != nil {
			e.logger.Warn("trigger_curation: dropping invalid memory", "error", err)
			continue
		}
		m.CreatedAt = now
		m.UpdatedAt = now
		if m.SessionCreated == 0 {
			m.SessionCreated = sessionNumber
		}
		if m.SessionUpdated == 0 {
			m.SessionUpdated = sessionNumber
		}
		if err := pdb.InsertMemory(m); err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Stats implements GET /memory/stats (spec.md §6).
func (e *Engine) Stats(projectID string) (*models.StatsResponse, error) {
	pdb, err := e.store.OpenProject(projectID)
	if err != nil {
		return nil, err
	}

	total, err := pdb.CountMemories()
	if err != nil {
		return nil, err
	}
	stale, err := pdb.CountStaleMemories()
	if err != nil {
		return nil, err
	}
	sessions, err := pdb.CountSessions()
	if err != nil {
		return nil, err
	}
	latest, err := pdb.LatestSessionID()
	if err != nil {
		return nil, err
	}

	return &models.StatsResponse{
		TotalMemories: total,
		TotalSessions: sessions,
		StaleMemories: stale,
		LatestSession: latest,
	}, nil
}

// Shutdown waits up to grace for in-flight curation to finish, then
// returns regardless (spec.md §5's bounded grace period).
func (e *Engine) Shutdown(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		e.logger.Warn("shutdown grace period elapsed with curation still in flight")
	}
}
