package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection. It is the index layer mirroring the
// file layer's records — never the source of truth, just what lets the
// Retrieval Engine and Lifecycle Manager scan metadata without re-parsing
// every markdown file on every call.
type DB struct {
	*sql.DB
}

// openIndex opens (creating if absent) the SQLite index database at path.
func openIndex(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newIOError("create index directory", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, newIOError("open sqlite", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, newSchemaError("init schema", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS memories (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  session_id TEXT,
  headline TEXT NOT NULL,
  content TEXT NOT NULL,
  reasoning TEXT,
  related_files TEXT,
  importance_weight REAL NOT NULL DEFAULT 0.5,
  confidence_score REAL NOT NULL DEFAULT 0.8,
  context_type TEXT NOT NULL,
  scope TEXT NOT NULL,
  temporal_class TEXT NOT NULL,
  status TEXT NOT NULL,
  trigger_phrases TEXT,
  semantic_tags TEXT,
  anti_triggers TEXT,
  domain TEXT,
  feature TEXT,
  question_types TEXT,
  action_required INTEGER NOT NULL DEFAULT 0,
  problem_solution_pair INTEGER NOT NULL DEFAULT 0,
  awaiting_implementation INTEGER NOT NULL DEFAULT 0,
  awaiting_decision INTEGER NOT NULL DEFAULT 0,
  exclude_from_retrieval INTEGER NOT NULL DEFAULT 0,
  session_created INTEGER NOT NULL DEFAULT 0,
  session_updated INTEGER NOT NULL DEFAULT 0,
  last_surfaced INTEGER NOT NULL DEFAULT 0,
  sessions_since_surfaced INTEGER NOT NULL DEFAULT 0,
  fade_rate REAL NOT NULL DEFAULT 0,
  retrieval_weight REAL NOT NULL DEFAULT 0.5,
  expires_after_sessions INTEGER NOT NULL DEFAULT 0,
  supersedes TEXT,
  superseded_by TEXT,
  resolves TEXT,
  resolved_by TEXT,
  related_to TEXT,
  blocks TEXT,
  blocked_by TEXT,
  embedding BLOB,
  embedding_stale INTEGER NOT NULL DEFAULT 0,
  schema_version INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id);
CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
CREATE INDEX IF NOT EXISTS idx_memories_domain ON memories(domain);
CREATE INDEX IF NOT EXISTS idx_memories_feature ON memories(feature);
CREATE INDEX IF NOT EXISTS idx_memories_context_type ON memories(context_type);
CREATE INDEX IF NOT EXISTS idx_memories_superseded_by ON memories(superseded_by);
CREATE INDEX IF NOT EXISTS idx_memories_project_status ON memories(project_id, status);

CREATE TABLE IF NOT EXISTS sessions (
  session_id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  message_count INTEGER NOT NULL DEFAULT 0,
  first_session_completed INTEGER NOT NULL DEFAULT 0,
  last_active INTEGER NOT NULL,
  metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id);

CREATE TABLE IF NOT EXISTS session_summaries (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  session_id TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summaries_project_created ON session_summaries(project_id, created_at);

CREATE TABLE IF NOT EXISTS project_snapshots (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_project_created ON project_snapshots(project_id, created_at);

CREATE TABLE IF NOT EXISTS management_logs (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  session_number INTEGER NOT NULL,
  processed INTEGER NOT NULL DEFAULT 0,
  superseded INTEGER NOT NULL DEFAULT 0,
  resolved INTEGER NOT NULL DEFAULT 0,
  action_cleared INTEGER NOT NULL DEFAULT 0,
  linked INTEGER NOT NULL DEFAULT 0,
  files_touched TEXT,
  success INTEGER NOT NULL DEFAULT 1,
  failure_reason TEXT,
  duration_millis INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_management_logs_project_created ON management_logs(project_id, created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
