// Package models holds the data types shared across the memory server:
// the Memory entity and its closed enums, session/project bookkeeping
// records, and the request/response DTOs for the HTTP surface and the
// external agent contracts.
package models

// Memory is the central domain entity: a durable knowledge artifact
// extracted from a conversation, scored, classified, and carrying the
// signals the Retrieval Engine activates against.
type Memory struct {
	// Identity
	ID        string `json:"id" yaml:"id"`
	SessionID string `json:"session_id" yaml:"session_id"`
	ProjectID string `json:"project_id" yaml:"project_id"`

	// Content
	Headline     string   `json:"headline" yaml:"headline"`
	Content      string   `json:"content" yaml:"-"` // body, below the frontmatter
	Reasoning    string   `json:"reasoning" yaml:"reasoning"`
	RelatedFiles []string `json:"related_files,omitempty" yaml:"related_files,omitempty"`

	// Scores
	ImportanceWeight float64 `json:"importance_weight" yaml:"importance_weight"`
	ConfidenceScore  float64 `json:"confidence_score" yaml:"confidence_score"`

	// Classification
	ContextType   ContextType   `json:"context_type" yaml:"context_type"`
	Scope         Scope         `json:"scope" yaml:"scope"`
	TemporalClass TemporalClass `json:"temporal_class" yaml:"temporal_class"`
	Status        Status        `json:"status" yaml:"status"`

	// Retrieval signals
	TriggerPhrases []string `json:"trigger_phrases,omitempty" yaml:"trigger_phrases,omitempty"`
	SemanticTags   []string `json:"semantic_tags,omitempty" yaml:"semantic_tags,omitempty"`
	AntiTriggers   []string `json:"anti_triggers,omitempty" yaml:"anti_triggers,omitempty"`
	Domain         string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Feature        string   `json:"feature,omitempty" yaml:"feature,omitempty"`
	QuestionTypes  []string `json:"question_types,omitempty" yaml:"question_types,omitempty"`

	// Flags
	ActionRequired        bool `json:"action_required" yaml:"action_required"`
	ProblemSolutionPair    bool `json:"problem_solution_pair" yaml:"problem_solution_pair"`
	AwaitingImplementation bool `json:"awaiting_implementation" yaml:"awaiting_implementation"`
	AwaitingDecision       bool `json:"awaiting_decision" yaml:"awaiting_decision"`
	ExcludeFromRetrieval   bool `json:"exclude_from_retrieval" yaml:"exclude_from_retrieval"`

	// Lifecycle counters
	SessionCreated        int     `json:"session_created" yaml:"session_created"`
	SessionUpdated        int     `json:"session_updated" yaml:"session_updated"`
	LastSurfaced          int     `json:"last_surfaced" yaml:"last_surfaced"`
	SessionsSinceSurfaced int     `json:"sessions_since_surfaced" yaml:"sessions_since_surfaced"`
	FadeRate              float64 `json:"fade_rate" yaml:"fade_rate"`
	RetrievalWeight       float64 `json:"retrieval_weight" yaml:"retrieval_weight"`
	ExpiresAfterSessions  int     `json:"expires_after_sessions,omitempty" yaml:"expires_after_sessions,omitempty"`

	// Relationships — ids only, inverses maintained by the lifecycle manager.
	Supersedes   *string  `json:"supersedes,omitempty" yaml:"supersedes,omitempty"`
	SupersededBy *string  `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`
	Resolves     []string `json:"resolves,omitempty" yaml:"resolves,omitempty"`
	ResolvedBy   *string  `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	RelatedTo    []string `json:"related_to,omitempty" yaml:"related_to,omitempty"`
	Blocks       []string `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	BlockedBy    []string `json:"blocked_by,omitempty" yaml:"blocked_by,omitempty"`

	// Vector
	Embedding        []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	EmbeddingStale   bool      `json:"embedding_stale" yaml:"embedding_stale"`

	// Bookkeeping
	SchemaVersion int   `json:"schema_version" yaml:"schema_version"`
	CreatedAt     int64 `json:"created_at" yaml:"created_at"`
	UpdatedAt     int64 `json:"updated_at" yaml:"updated_at"`
}

// HasRelatedTo reports whether other is present in m's related_to set.
func (m *Memory) HasRelatedTo(other string) bool {
	for _, id := range m.RelatedTo {
		if id == other {
			return true
		}
	}
	return false
}

// AddRelatedTo adds other to m's related_to set if not already present.
func (m *Memory) AddRelatedTo(other string) {
	if !m.HasRelatedTo(other) {
		m.RelatedTo = append(m.RelatedTo, other)
	}
}

// ApplyDefaults fills temporal_class, fade_rate, scope (and, for global
// scope, project_id), and expires_after_sessions from the per-type defaults
// table when the curator omitted them (invariant 6). Must be called before
// a memory is first persisted.
func (m *Memory) ApplyDefaults() {
	d, ok := DefaultsByType[m.ContextType]
	if !ok {
		d = DefaultsByType[ContextTypeTechnical]
	}
	if m.TemporalClass == "" {
		m.TemporalClass = d.TemporalClass
	}
	if m.FadeRate == 0 && m.Status == "" {
		// Only default fade_rate on first creation (Status unset), never
		// overwrite an explicit zero set later by the curator or a patch.
		m.FadeRate = d.FadeRate
	}
	if m.Scope == "" {
		m.Scope = d.Scope
	}
	if m.ExpiresAfterSessions == 0 {
		m.ExpiresAfterSessions = d.ExpiresAfterSessions
	}
	if m.Scope == ScopeGlobal {
		m.ProjectID = GlobalProjectID
	}
	if m.ImportanceWeight == 0 {
		m.ImportanceWeight = 0.5
	}
	if m.RetrievalWeight == 0 {
		m.RetrievalWeight = m.ImportanceWeight
	}
	if m.Status == "" {
		m.Status = StatusActive
	}
	if m.SchemaVersion == 0 {
		m.SchemaVersion = CurrentSchemaVersion
	}
}

// Validate enforces the invariants that ApplyDefaults doesn't already
// guarantee: enum membership and the embedding dimensionality invariant.
func (m *Memory) Validate() error {
	if !m.ContextType.IsValid() {
		return &ValidationError{Field: "context_type", Message: "unknown context type"}
	}
	if !m.Scope.IsValid() {
		return &ValidationError{Field: "scope", Message: "unknown scope"}
	}
	if !m.TemporalClass.IsValid() {
		return &ValidationError{Field: "temporal_class", Message: "unknown temporal class"}
	}
	if !m.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "unknown status"}
	}
	if m.Scope == ScopeGlobal && m.ProjectID != GlobalProjectID {
		return &ValidationError{Field: "project_id", Message: "global scope requires project_id=global"}
	}
	if m.Scope == ScopeProject && m.ProjectID == GlobalProjectID {
		return &ValidationError{Field: "project_id", Message: "project scope requires project_id!=global"}
	}
	if m.Embedding != nil && len(m.Embedding) != EmbeddingDimensions {
		return &ValidationError{Field: "embedding", Message: "embedding must have 384 dimensions"}
	}
	return nil
}

// EmbeddingDimensions is the fixed vector width the core requires (spec.md §1).
const EmbeddingDimensions = 384

// ValidationError reports a single field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
