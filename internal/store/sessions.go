package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RLabs-Inc/memory/internal/models"
)

// EnsureSession creates a session if it doesn't exist, or returns the
// existing one (spec.md §3: "Created on first /context call for a pair").
func (p *ProjectDB) EnsureSession(sessionID string) (*models.Session, error) {
	existing, err := p.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().Unix()
	s := &models.Session{
		SessionID:  sessionID,
		ProjectID:  p.ProjectID,
		LastActive: now,
	}
	if err := p.PutSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by id, or nil if it doesn't exist.
func (p *ProjectDB) GetSession(sessionID string) (*models.Session, error) {
	var s models.Session
	var metaJSON sql.NullString
	err := p.idx.QueryRow(`
		SELECT session_id, project_id, message_count, first_session_completed, last_active, metadata
		FROM sessions WHERE session_id = ? AND project_id = ?
	`, sessionID, p.ProjectID).Scan(&s.SessionID, &s.ProjectID, &s.MessageCount, &s.FirstSessionCompleted, &s.LastActive, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newIOError("get session", err)
	}
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &s.Metadata)
	}
	return &s, nil
}

// PutSession writes a session's full record to both layers.
func (p *ProjectDB) PutSession(s *models.Session) error {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	if err := writeSessionFile(p.root, s); err != nil {
		return err
	}

	metaJSON, _ := json.Marshal(s.Metadata)
	_, err := p.idx.Exec(`
		INSERT INTO sessions (session_id, project_id, message_count, first_session_completed, last_active, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			message_count=excluded.message_count,
			first_session_completed=excluded.first_session_completed,
			last_active=excluded.last_active,
			metadata=excluded.metadata
	`, s.SessionID, s.ProjectID, s.MessageCount, s.FirstSessionCompleted, s.LastActive, string(metaJSON))
	if err != nil {
		return newIOError("index session", err)
	}
	return nil
}

// IncrementMessageCount bumps message_count and last_active for a session,
// used by process_message (spec.md §4.4).
func (p *ProjectDB) IncrementMessageCount(sessionID string) (*models.Session, error) {
	s, err := p.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, newNotFoundError(fmt.Sprintf("session %s", sessionID))
	}
	s.MessageCount++
	s.LastActive = time.Now().Unix()
	if err := p.PutSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

// CountSessions returns the total number of sessions tracked for this
// project (used by GET /memory/stats).
func (p *ProjectDB) CountSessions() (int, error) {
	var n int
	err := p.idx.QueryRow(`SELECT COUNT(*) FROM sessions WHERE project_id = ?`, p.ProjectID).Scan(&n)
	if err != nil {
		return 0, newIOError("count sessions", err)
	}
	return n, nil
}

// LatestSessionID returns the most recently active session id for this
// project, or "" if none exist.
func (p *ProjectDB) LatestSessionID() (string, error) {
	var id string
	err := p.idx.QueryRow(`
		SELECT session_id FROM sessions WHERE project_id = ? ORDER BY last_active DESC LIMIT 1
	`, p.ProjectID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", newIOError("latest session", err)
	}
	return id, nil
}
