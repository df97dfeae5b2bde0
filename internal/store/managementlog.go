package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/RLabs-Inc/memory/internal/models"
)

// AppendManagementLog writes a management-pass record regardless of
// outcome (spec.md §4.3.5 — "Log a management record ... success flag").
func (p *ProjectDB) AppendManagementLog(l *models.ManagementLog) error {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}
	l.ProjectID = p.ProjectID

	if err := writeManagementLogFile(p.root, l); err != nil {
		return err
	}

	filesJSON, _ := json.Marshal(l.FilesTouched)
	_, err := p.idx.Exec(`
		INSERT INTO management_logs (
			id, project_id, session_number, processed, superseded, resolved, action_cleared, linked,
			files_touched, success, failure_reason, duration_millis, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.ProjectID, l.SessionNumber, l.Processed, l.Superseded, l.Resolved, l.ActionCleared, l.Linked,
		string(filesJSON), l.Success, nullEmpty(l.FailureReason), l.DurationMillis, l.CreatedAt)
	if err != nil {
		return newIOError("index management log", err)
	}
	return nil
}

// ManagementLogCount returns the number of management passes logged for
// this project.
func (p *ProjectDB) ManagementLogCount() (int, error) {
	var n int
	err := p.idx.QueryRow(`SELECT COUNT(*) FROM management_logs WHERE project_id = ?`, p.ProjectID).Scan(&n)
	if err != nil {
		return 0, newIOError("count management logs", err)
	}
	return n, nil
}
