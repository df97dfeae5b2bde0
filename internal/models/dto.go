package models

// ContextRequest is the body of POST /memory/context.
type ContextRequest struct {
	SessionID       string `json:"session_id"`
	ProjectID       string `json:"project_id"`
	CurrentMessage  string `json:"current_message"`
	ClaudeSessionID string `json:"claude_session_id,omitempty"`
}

// StoredMemoryView is the structured counterpart of a formatted memories
// block — the fields surfaced to the assistant, not the full internal record.
type StoredMemoryView struct {
	ID               string   `json:"id"`
	Headline         string   `json:"headline"`
	Content          string   `json:"content"`
	ContextType      string   `json:"context_type"`
	ImportanceWeight float64  `json:"importance_weight"`
	RelatedFiles     []string `json:"related_files,omitempty"`
	ActionRequired   bool     `json:"action_required"`
}

// ContextResponse is the body of POST /memory/context's response.
type ContextResponse struct {
	Primer    string             `json:"primer,omitempty"`
	Memories  []StoredMemoryView `json:"memories"`
	Formatted string             `json:"formatted"`
}

// ProcessRequest is the body of POST /memory/process.
type ProcessRequest struct {
	SessionID string `json:"session_id"`
	ProjectID string `json:"project_id"`
}

// ProcessResponse is the body of POST /memory/process's response.
type ProcessResponse struct {
	MessageCount int `json:"message_count"`
}

// CheckpointTrigger is the reason curation was triggered.
type CheckpointTrigger string

const (
	TriggerPreCompact  CheckpointTrigger = "pre_compact"
	TriggerSessionEnd  CheckpointTrigger = "session_end"
	TriggerManual      CheckpointTrigger = "manual"
)

func (t CheckpointTrigger) IsValid() bool {
	switch t {
	case TriggerPreCompact, TriggerSessionEnd, TriggerManual:
		return true
	}
	return false
}

// CheckpointRequest is the body of POST /memory/checkpoint.
type CheckpointRequest struct {
	SessionID       string            `json:"session_id"`
	ProjectID       string            `json:"project_id"`
	ClaudeSessionID string            `json:"claude_session_id"`
	Trigger         CheckpointTrigger `json:"trigger"`
	Cwd             string            `json:"cwd"`
}

// CheckpointResponse is the body of POST /memory/checkpoint's 202 response.
type CheckpointResponse struct {
	Accepted bool `json:"accepted"`
}

// StatsResponse is the body of GET /memory/stats's response.
type StatsResponse struct {
	TotalMemories  int    `json:"totalMemories"`
	TotalSessions  int    `json:"totalSessions"`
	StaleMemories  int    `json:"staleMemories"`
	LatestSession  string `json:"latestSession,omitempty"`
}

// HealthResponse is the body of GET /health's response.
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// --- external agent contracts (spec.md §6) ---

// CurationRequest is what the core hands the curator: the raw transcript
// (privacy-scrubbed) and the project it belongs to.
type CurationRequest struct {
	ProjectID  string `json:"project_id"`
	SessionID  string `json:"session_id"`
	Transcript string `json:"transcript"`
}

// CurationResult is what the curator hands back. The core re-applies
// defaults and validates enums on every memory before it trusts the shape.
type CurationResult struct {
	Memories       []Memory `json:"memories"`
	SessionSummary string   `json:"session_summary"`
	Snapshot       string   `json:"snapshot,omitempty"`
}

// ManagementBrief is what the core hands the management agent.
type ManagementBrief struct {
	NewMemoryIDs  []string `json:"new_memory_ids"`
	Summary       string   `json:"summary"`
	Snapshot      string   `json:"snapshot"`
	SessionNumber int      `json:"session_number"`
	ProjectRoot   string   `json:"project_root"`
	CurrentDate   string   `json:"current_date"`
	SkillPrompt   string   `json:"skill_prompt"`
}

// ManagementReport is the management agent's parsed plain-text report. Per
// spec.md §9, unrecognized lines are logged but non-fatal.
type ManagementReport struct {
	Actions []string `json:"actions"`
	Summary string   `json:"summary"`
	Raw     string   `json:"raw"`
}
