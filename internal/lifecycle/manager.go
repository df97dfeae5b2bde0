package lifecycle

import (
	"errors"
	"log/slog"
	"time"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

func errManagementFailed(reason string) error { return errors.New(reason) }

// Manager is the Lifecycle Manager: invoked after every curator pass to
// reconcile relationships, apply implicit state transitions, maintain the
// personal primer, and log the pass regardless of outcome (spec.md §4.3).
type Manager struct {
	store           *store.Store
	logger          *slog.Logger
	personalEnabled bool
}

// NewManager builds a Manager. personalEnabled gates primer maintenance
// (MEMORY_PERSONAL_ENABLED) — relationship reconciliation and implicit
// transitions always run regardless.
func NewManager(s *store.Store, logger *slog.Logger, personalEnabled bool) *Manager {
	return &Manager{store: s, logger: logger, personalEnabled: personalEnabled}
}

// Run executes one management pass for a project's freshly-curated
// memories. newMemories must already be persisted by the caller (the
// Engine) before Run is invoked — reconciliation reads and writes them
// in place, and Run persists the final state.
func (mgr *Manager) Run(projectID string, newMemories []*models.Memory, summary, snapshot string, sessionNumber int) (*models.ManagementLog, error) {
	start := time.Now()
	log := &models.ManagementLog{
		ProjectID:     projectID,
		SessionNumber: sessionNumber,
	}

	pdb, err := mgr.store.OpenProject(projectID)
	if err != nil {
		return mgr.finish(pdb, log, start, false, err.Error())
	}

	for _, m := range newMemories {
		log.Processed++
		outcome, err := Reconcile(pdb, m)
		if err != nil {
			mgr.logger.Error("reconcile failed", "memory_id", m.ID, "error", err)
			return mgr.finish(pdb, log, start, false, err.Error())
		}
		log.Superseded += outcome.Superseded
		log.Resolved += outcome.Resolved
		log.Linked += outcome.Linked

		if err := pdb.PutMemory(m); err != nil {
			return mgr.finish(pdb, log, start, false, err.Error())
		}
		log.FilesTouched = append(log.FilesTouched, m.RelatedFiles...)
	}

	implicit, err := ApplyImplicitTransitions(pdb, summary, snapshot)
	if err != nil {
		mgr.logger.Error("implicit transitions failed", "project_id", projectID, "error", err)
		return mgr.finish(pdb, log, start, false, err.Error())
	}
	log.ActionCleared = implicit.ActionCleared

	if mgr.personalEnabled {
		if _, err := MaintainPrimer(mgr.store, newMemories); err != nil {
			mgr.logger.Error("primer maintenance failed", "project_id", projectID, "error", err)
			return mgr.finish(pdb, log, start, false, err.Error())
		}
	}

	return mgr.finish(pdb, log, start, true, "")
}

func (mgr *Manager) finish(pdb *store.ProjectDB, log *models.ManagementLog, start time.Time, success bool, failureReason string) (*models.ManagementLog, error) {
	log.Success = success
	log.FailureReason = failureReason
	log.DurationMillis = time.Since(start).Milliseconds()
	log.FilesTouched = dedupeStrings(log.FilesTouched)

	if pdb != nil {
		if err := pdb.AppendManagementLog(log); err != nil {
			mgr.logger.Error("failed to write management log", "project_id", log.ProjectID, "error", err)
		}
	}

	if !success {
		return log, &Error{Kind: KindIO, Op: "run", Err: errManagementFailed(failureReason)}
	}
	return log, nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
