package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/RLabs-Inc/memory/internal/models"
)

// AppendSummary writes a new SessionSummary record. Summaries are
// append-only per project; "latest-wins" (spec.md §3) just means callers
// read LatestSummary instead of mutating history.
func (p *ProjectDB) AppendSummary(sessionID, summary string) (*models.SessionSummary, error) {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	s := &models.SessionSummary{
		ID:        uuid.New().String(),
		ProjectID: p.ProjectID,
		SessionID: sessionID,
		Summary:   summary,
		CreatedAt: time.Now().Unix(),
	}
	if err := writeSummaryFile(p.root, s); err != nil {
		return nil, err
	}
	_, err := p.idx.Exec(`
		INSERT INTO session_summaries (id, project_id, session_id, created_at) VALUES (?, ?, ?, ?)
	`, s.ID, s.ProjectID, s.SessionID, s.CreatedAt)
	if err != nil {
		return nil, newIOError("index summary", err)
	}
	return s, nil
}

// LatestSummary returns the most recently created summary for this
// project, or nil if none exist.
func (p *ProjectDB) LatestSummary() (*models.SessionSummary, error) {
	var id string
	err := p.idx.QueryRow(`
		SELECT id FROM session_summaries WHERE project_id = ? ORDER BY created_at DESC LIMIT 1
	`, p.ProjectID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("latest summary", err)
	}
	return readSummaryFile(p.root, id)
}

// AppendSnapshot writes a new ProjectSnapshot record.
func (p *ProjectDB) AppendSnapshot(snapshot string) (*models.ProjectSnapshot, error) {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	s := &models.ProjectSnapshot{
		ID:        uuid.New().String(),
		ProjectID: p.ProjectID,
		Snapshot:  snapshot,
		CreatedAt: time.Now().Unix(),
	}
	if err := writeSnapshotFile(p.root, s); err != nil {
		return nil, err
	}
	_, err := p.idx.Exec(`
		INSERT INTO project_snapshots (id, project_id, created_at) VALUES (?, ?, ?)
	`, s.ID, s.ProjectID, s.CreatedAt)
	if err != nil {
		return nil, newIOError("index snapshot", err)
	}
	return s, nil
}

// LatestSnapshot returns the most recently created snapshot for this
// project, or nil if none exist.
func (p *ProjectDB) LatestSnapshot() (*models.ProjectSnapshot, error) {
	var id string
	err := p.idx.QueryRow(`
		SELECT id FROM project_snapshots WHERE project_id = ? ORDER BY created_at DESC LIMIT 1
	`, p.ProjectID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("latest snapshot", err)
	}
	return readSnapshotFile(p.root, id)
}
