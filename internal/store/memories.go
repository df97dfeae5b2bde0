package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/search"
)

// memoryColumns is the canonical column list for all SELECT queries against
// the memories index table. Order must match scanMemory.
const memoryColumns = `id, project_id, session_id, headline, content, reasoning, related_files,
	importance_weight, confidence_score, context_type, scope, temporal_class, status,
	trigger_phrases, semantic_tags, anti_triggers, domain, feature, question_types,
	action_required, problem_solution_pair, awaiting_implementation, awaiting_decision, exclude_from_retrieval,
	session_created, session_updated, last_surfaced, sessions_since_surfaced, fade_rate, retrieval_weight, expires_after_sessions,
	supersedes, superseded_by, resolves, resolved_by, related_to, blocks, blocked_by,
	embedding, embedding_stale, schema_version, created_at, updated_at`

// InsertMemory writes a new memory to both the file layer (source of
// truth) and the index layer (accelerator). The caller must have already
// called m.ApplyDefaults() and m.Validate().
func (p *ProjectDB) InsertMemory(m *models.Memory) error {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	if err := writeMemoryFile(p.root, m); err != nil {
		return err
	}
	if err := p.indexMemory(m); err != nil {
		return err
	}
	return nil
}

// PutMemory replaces an existing memory's full record, used by the
// Lifecycle Manager's relationship reconciliation, decay, and state
// transitions. Same write path as insert — the file layer has no separate
// update operation, only whole-record rewrites, which is what keeps
// migration idempotent (P4).
func (p *ProjectDB) PutMemory(m *models.Memory) error {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	if err := writeMemoryFile(p.root, m); err != nil {
		return err
	}
	return p.indexMemory(m)
}

// GetMemory fetches a single memory by id from the index layer, falling
// back to the file layer if the index is missing the row (e.g. after an
// index rebuild).
func (p *ProjectDB) GetMemory(id string) (*models.Memory, error) {
	m, err := p.scanMemoryRow(p.idx.QueryRow(
		fmt.Sprintf(`SELECT %s FROM memories WHERE id = ? AND project_id = ?`, memoryColumns), id, p.ProjectID))
	if err == sql.ErrNoRows {
		return readMemoryFile(p.root, id)
	}
	if err != nil {
		return nil, newIOError("get memory", err)
	}
	return m, nil
}

// AllMemories returns every memory in this project, from the index layer.
func (p *ProjectDB) AllMemories() ([]*models.Memory, error) {
	rows, err := p.idx.Query(fmt.Sprintf(`SELECT %s FROM memories WHERE project_id = ?`, memoryColumns), p.ProjectID)
	if err != nil {
		return nil, newIOError("list memories", err)
	}
	defer rows.Close()
	return p.scanMemoryRows(rows)
}

// ActiveMemories returns memories with status=active — the only ones
// invariant 4 allows as retrieval candidates.
func (p *ProjectDB) ActiveMemories() ([]*models.Memory, error) {
	rows, err := p.idx.Query(
		fmt.Sprintf(`SELECT %s FROM memories WHERE project_id = ? AND status = ?`, memoryColumns),
		p.ProjectID, string(models.StatusActive))
	if err != nil {
		return nil, newIOError("list active memories", err)
	}
	defer rows.Close()
	return p.scanMemoryRows(rows)
}

// DeleteMemory removes a memory from both layers.
func (p *ProjectDB) DeleteMemory(id string) error {
	p.fileMu.Lock()
	defer p.fileMu.Unlock()

	if err := deleteMemoryFile(p.root, id); err != nil {
		return err
	}
	if _, err := p.idx.Exec(`DELETE FROM memories WHERE id = ? AND project_id = ?`, id, p.ProjectID); err != nil {
		return newIOError("delete memory index row", err)
	}
	return nil
}

// CountMemories returns the total number of memories in this project.
func (p *ProjectDB) CountMemories() (int, error) {
	var n int
	err := p.idx.QueryRow(`SELECT COUNT(*) FROM memories WHERE project_id = ?`, p.ProjectID).Scan(&n)
	if err != nil {
		return 0, newIOError("count memories", err)
	}
	return n, nil
}

// CountStaleMemories returns the number of memories whose embedding is
// stale relative to their content (used by GET /memory/stats).
func (p *ProjectDB) CountStaleMemories() (int, error) {
	var n int
	err := p.idx.QueryRow(`SELECT COUNT(*) FROM memories WHERE project_id = ? AND embedding_stale = 1`, p.ProjectID).Scan(&n)
	if err != nil {
		return 0, newIOError("count stale memories", err)
	}
	return n, nil
}

// CandidatesByMetadata returns active memories matching any of domain,
// feature, or contextType — the cheap metadata prefilter the Lifecycle
// Manager's relationship reconciliation uses before falling back to
// vector search (spec.md §4.3.1).
func (p *ProjectDB) CandidatesByMetadata(domain, feature string, contextType models.ContextType) ([]*models.Memory, error) {
	var conds []string
	var args []any
	args = append(args, p.ProjectID, string(models.StatusActive))

	if domain != "" {
		conds = append(conds, "domain = ?")
		args = append(args, domain)
	}
	if feature != "" {
		conds = append(conds, "feature = ?")
		args = append(args, feature)
	}
	if contextType != "" {
		conds = append(conds, "context_type = ?")
		args = append(args, string(contextType))
	}
	if len(conds) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM memories WHERE project_id = ? AND status = ? AND (%s)`,
		memoryColumns, strings.Join(conds, " OR "))
	rows, err := p.idx.Query(query, args...)
	if err != nil {
		return nil, newIOError("candidates by metadata", err)
	}
	defer rows.Close()
	return p.scanMemoryRows(rows)
}

// ScoredMemory pairs a memory with its similarity to a query vector.
type ScoredMemory struct {
	Memory     *models.Memory
	Similarity float64
	Stale      bool
}

// SearchVector performs an in-process cosine similarity search: filter is
// applied before top-k selection, per the Store contract (spec.md §4.1).
func (p *ProjectDB) SearchVector(queryVec []float32, topK int, filter func(*models.Memory) bool) ([]ScoredMemory, error) {
	memories, err := p.AllMemories()
	if err != nil {
		return nil, err
	}

	var scored []ScoredMemory
	for _, m := range memories {
		if filter != nil && !filter(m) {
			continue
		}
		if len(m.Embedding) == 0 {
			continue
		}
		sim := search.CosineSimilarity(queryVec, m.Embedding)
		scored = append(scored, ScoredMemory{Memory: m, Similarity: sim, Stale: m.EmbeddingStale})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (p *ProjectDB) indexMemory(m *models.Memory) error {
	triggerJSON, _ := json.Marshal(m.TriggerPhrases)
	tagsJSON, _ := json.Marshal(m.SemanticTags)
	antiJSON, _ := json.Marshal(m.AntiTriggers)
	questionJSON, _ := json.Marshal(m.QuestionTypes)
	relatedFilesJSON, _ := json.Marshal(m.RelatedFiles)
	resolvesJSON, _ := json.Marshal(m.Resolves)
	relatedToJSON, _ := json.Marshal(m.RelatedTo)
	blocksJSON, _ := json.Marshal(m.Blocks)
	blockedByJSON, _ := json.Marshal(m.BlockedBy)

	_, err := p.idx.Exec(fmt.Sprintf(`
		INSERT INTO memories (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, session_id=excluded.session_id, headline=excluded.headline,
			content=excluded.content, reasoning=excluded.reasoning, related_files=excluded.related_files,
			importance_weight=excluded.importance_weight, confidence_score=excluded.confidence_score,
			context_type=excluded.context_type, scope=excluded.scope, temporal_class=excluded.temporal_class,
			status=excluded.status, trigger_phrases=excluded.trigger_phrases, semantic_tags=excluded.semantic_tags,
			anti_triggers=excluded.anti_triggers, domain=excluded.domain, feature=excluded.feature,
			question_types=excluded.question_types, action_required=excluded.action_required,
			problem_solution_pair=excluded.problem_solution_pair, awaiting_implementation=excluded.awaiting_implementation,
			awaiting_decision=excluded.awaiting_decision, exclude_from_retrieval=excluded.exclude_from_retrieval,
			session_created=excluded.session_created, session_updated=excluded.session_updated,
			last_surfaced=excluded.last_surfaced, sessions_since_surfaced=excluded.sessions_since_surfaced,
			fade_rate=excluded.fade_rate, retrieval_weight=excluded.retrieval_weight,
			expires_after_sessions=excluded.expires_after_sessions, supersedes=excluded.supersedes,
			superseded_by=excluded.superseded_by, resolves=excluded.resolves, resolved_by=excluded.resolved_by,
			related_to=excluded.related_to, blocks=excluded.blocks, blocked_by=excluded.blocked_by,
			embedding=excluded.embedding, embedding_stale=excluded.embedding_stale,
			schema_version=excluded.schema_version, updated_at=excluded.updated_at
	`, memoryColumns),
		m.ID, m.ProjectID, nullEmpty(m.SessionID), m.Headline, m.Content, nullEmpty(m.Reasoning), string(relatedFilesJSON),
		m.ImportanceWeight, m.ConfidenceScore, string(m.ContextType), string(m.Scope), string(m.TemporalClass), string(m.Status),
		string(triggerJSON), string(tagsJSON), string(antiJSON), nullEmpty(m.Domain), nullEmpty(m.Feature), string(questionJSON),
		m.ActionRequired, m.ProblemSolutionPair, m.AwaitingImplementation, m.AwaitingDecision, m.ExcludeFromRetrieval,
		m.SessionCreated, m.SessionUpdated, m.LastSurfaced, m.SessionsSinceSurfaced, m.FadeRate, m.RetrievalWeight, m.ExpiresAfterSessions,
		nullPtr(m.Supersedes), nullPtr(m.SupersededBy), string(resolvesJSON), nullPtr(m.ResolvedBy), string(relatedToJSON), string(blocksJSON), string(blockedByJSON),
		search.Float32ToBytes(m.Embedding), m.EmbeddingStale, m.SchemaVersion, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return newIOError("index memory", err)
	}
	return nil
}

func (p *ProjectDB) scanMemoryRow(row *sql.Row) (*models.Memory, error) {
	var m models.Memory
	dest, post := memoryScanDest(&m)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	post()
	return &m, nil
}

func (p *ProjectDB) scanMemoryRows(rows *sql.Rows) ([]*models.Memory, error) {
	var result []*models.Memory
	for rows.Next() {
		var m models.Memory
		dest, post := memoryScanDest(&m)
		if err := rows.Scan(dest...); err != nil {
			return nil, newIOError("scan memory", err)
		}
		post()
		result = append(result, &m)
	}
	return result, rows.Err()
}

// memoryScanDest builds Scan destinations for the memoryColumns list and
// returns a post-scan step that decodes JSON/nullable columns into m.
func memoryScanDest(m *models.Memory) (dest []any, post func()) {
	var sessionID, reasoning, domain, feature sql.NullString
	var relatedFilesJSON, triggerJSON, tagsJSON, antiJSON, questionJSON sql.NullString
	var resolvesJSON, relatedToJSON, blocksJSON, blockedByJSON sql.NullString
	var supersedes, supersededBy, resolvedBy sql.NullString
	var embedding []byte
	var contextType, scope, temporalClass, status string

	dest = []any{
		&m.ID, &m.ProjectID, &sessionID, &m.Headline, &m.Content, &reasoning, &relatedFilesJSON,
		&m.ImportanceWeight, &m.ConfidenceScore, &contextType, &scope, &temporalClass, &status,
		&triggerJSON, &tagsJSON, &antiJSON, &domain, &feature, &questionJSON,
		&m.ActionRequired, &m.ProblemSolutionPair, &m.AwaitingImplementation, &m.AwaitingDecision, &m.ExcludeFromRetrieval,
		&m.SessionCreated, &m.SessionUpdated, &m.LastSurfaced, &m.SessionsSinceSurfaced, &m.FadeRate, &m.RetrievalWeight, &m.ExpiresAfterSessions,
		&supersedes, &supersededBy, &resolvesJSON, &resolvedBy, &relatedToJSON, &blocksJSON, &blockedByJSON,
		&embedding, &m.EmbeddingStale, &m.SchemaVersion, &m.CreatedAt, &m.UpdatedAt,
	}

	post = func() {
		m.ContextType = models.ContextType(contextType)
		m.Scope = models.Scope(scope)
		m.TemporalClass = models.TemporalClass(temporalClass)
		m.Status = models.Status(status)
		if sessionID.Valid {
			m.SessionID = sessionID.String
		}
		if reasoning.Valid {
			m.Reasoning = reasoning.String
		}
		if domain.Valid {
			m.Domain = domain.String
		}
		if feature.Valid {
			m.Feature = feature.String
		}
		if relatedFilesJSON.Valid {
			json.Unmarshal([]byte(relatedFilesJSON.String), &m.RelatedFiles)
		}
		if triggerJSON.Valid {
			json.Unmarshal([]byte(triggerJSON.String), &m.TriggerPhrases)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &m.SemanticTags)
		}
		if antiJSON.Valid {
			json.Unmarshal([]byte(antiJSON.String), &m.AntiTriggers)
		}
		if questionJSON.Valid {
			json.Unmarshal([]byte(questionJSON.String), &m.QuestionTypes)
		}
		if resolvesJSON.Valid {
			json.Unmarshal([]byte(resolvesJSON.String), &m.Resolves)
		}
		if relatedToJSON.Valid {
			json.Unmarshal([]byte(relatedToJSON.String), &m.RelatedTo)
		}
		if blocksJSON.Valid {
			json.Unmarshal([]byte(blocksJSON.String), &m.Blocks)
		}
		if blockedByJSON.Valid {
			json.Unmarshal([]byte(blockedByJSON.String), &m.BlockedBy)
		}
		if supersedes.Valid {
			v := supersedes.String
			m.Supersedes = &v
		}
		if supersededBy.Valid {
			v := supersededBy.String
			m.SupersededBy = &v
		}
		if resolvedBy.Valid {
			v := resolvedBy.String
			m.ResolvedBy = &v
		}
		if len(embedding) > 0 {
			m.Embedding = search.BytesToFloat32(embedding)
		}
	}
	return dest, post
}

func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
