package models

// Session tracks one (session_id, project_id) conversation's lifetime.
type Session struct {
	SessionID             string         `json:"session_id" yaml:"session_id"`
	ProjectID             string         `json:"project_id" yaml:"project_id"`
	MessageCount          int            `json:"message_count" yaml:"message_count"`
	FirstSessionCompleted bool           `json:"first_session_completed" yaml:"first_session_completed"`
	LastActive            int64          `json:"last_active" yaml:"last_active"`
	Metadata              map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SessionSummary is an append-only, latest-wins-per-project record of what
// happened in a session, produced by the curator.
type SessionSummary struct {
	ID        string `json:"id" yaml:"id"`
	ProjectID string `json:"project_id" yaml:"project_id"`
	SessionID string `json:"session_id" yaml:"session_id"`
	Summary   string `json:"-" yaml:"-"` // body
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

// ProjectSnapshot is an append-only, latest-wins-per-project record of the
// project's overall state, produced by the curator.
type ProjectSnapshot struct {
	ID        string `json:"id" yaml:"id"`
	ProjectID string `json:"project_id" yaml:"project_id"`
	Snapshot  string `json:"-" yaml:"-"` // body
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

// ManagementLog is an append-only record of one Lifecycle Manager pass.
type ManagementLog struct {
	ID               string   `json:"id" yaml:"id"`
	ProjectID        string   `json:"project_id" yaml:"project_id"`
	SessionNumber    int      `json:"session_number" yaml:"session_number"`
	Processed        int      `json:"processed" yaml:"processed"`
	Superseded       int      `json:"superseded" yaml:"superseded"`
	Resolved         int      `json:"resolved" yaml:"resolved"`
	ActionCleared    int      `json:"action_cleared" yaml:"action_cleared"`
	Linked           int      `json:"linked" yaml:"linked"`
	FilesTouched     []string `json:"files_touched,omitempty" yaml:"files_touched,omitempty"`
	Success          bool     `json:"success" yaml:"success"`
	FailureReason    string   `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	DurationMillis   int64    `json:"duration_millis" yaml:"duration_millis"`
	Report           string   `json:"-" yaml:"-"` // body: the manager agent's raw report, if any
	CreatedAt        int64    `json:"created_at" yaml:"created_at"`
}

// PersonalPrimer is the singleton, global, human-readable continuity
// document. Only the Lifecycle Manager may create it; every later write is
// an update.
type PersonalPrimer struct {
	Content   string `json:"-" yaml:"-"` // body, markdown
	UpdatedAt int64  `json:"updated_at" yaml:"updated_at"`
}
