package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RLabs-Inc/memory/internal/models"
)

// StorageMode selects where per-project state lives. Global state is
// always central, regardless of mode (spec.md §6).
type StorageMode string

const (
	ModeCentral StorageMode = "central"
	ModeLocal   StorageMode = "local"
)

// Store is the opaque content-addressed collection store spec.md §1 names
// as an external dependency, realized here as a two-layer implementation:
// a markdown+YAML file layer as source of truth, and a shared SQLite index
// mirroring every write for fast metadata scans and vector search.
type Store struct {
	mode        StorageMode
	centralRoot string
	localRoot   string // cwd, only consulted when mode == ModeLocal

	idx *DB

	mu       sync.Mutex
	projects sync.Map // project_id -> *ProjectDB
}

// Open creates or opens a Store rooted at centralRoot, with the shared
// SQLite index database living alongside it.
func Open(centralRoot, localRoot string, mode StorageMode) (*Store, error) {
	if err := os.MkdirAll(centralRoot, 0o755); err != nil {
		return nil, newIOError("create central root", err)
	}

	idx, err := openIndex(filepath.Join(centralRoot, "index.db"))
	if err != nil {
		return nil, err
	}

	return &Store{
		mode:        mode,
		centralRoot: centralRoot,
		localRoot:   localRoot,
		idx:         idx,
	}, nil
}

// Close releases the index database handle.
func (s *Store) Close() error {
	return s.idx.Close()
}

// projectRoot computes the file-layer root directory for a project id.
// Global lives under centralRoot/global unconditionally (invariant 5's
// project_id="global" sentinel maps onto a fixed, always-central path).
func (s *Store) projectRoot(projectID string) string {
	if projectID == models.GlobalProjectID {
		return filepath.Join(s.centralRoot, "global")
	}
	if s.mode == ModeLocal {
		return filepath.Join(s.localRoot, ".memory", projectID)
	}
	return filepath.Join(s.centralRoot, projectID)
}

// ProjectDB is the cached per-project handle wrapping both layers, per
// spec.md §4.1's "open(project_id) → ProjectDB is idempotent and cached."
type ProjectDB struct {
	ProjectID string
	root      string
	idx       *DB

	fileMu sync.Mutex // per-collection exclusive lock for file-layer read-modify-write
}

// OpenProject returns the cached ProjectDB for projectID, creating it (and
// its directories) on first use. Concurrent callers for the same project
// receive the same instance.
func (s *Store) OpenProject(projectID string) (*ProjectDB, error) {
	if v, ok := s.projects.Load(projectID); ok {
		return v.(*ProjectDB), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.projects.Load(projectID); ok {
		return v.(*ProjectDB), nil
	}

	root := s.projectRoot(projectID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, newIOError(fmt.Sprintf("create project root %s", projectID), err)
	}

	pdb := &ProjectDB{ProjectID: projectID, root: root, idx: s.idx}
	s.projects.Store(projectID, pdb)
	return pdb, nil
}

// Global returns the ProjectDB for the global sentinel project.
func (s *Store) Global() (*ProjectDB, error) {
	return s.OpenProject(models.GlobalProjectID)
}

// ProjectIDs lists every project with a directory on disk under this
// store's central root (global included), for the Migration component to
// sweep without the caller needing to already know every project id.
// Local-mode per-project directories under a cwd are not discoverable this
// way — migration against local storage is scoped to the caller's own
// project, opened directly by id.
func (s *Store) ProjectIDs() ([]string, error) {
	entries, err := os.ReadDir(s.centralRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newIOError("list central root", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "global" {
			ids = append(ids, models.GlobalProjectID)
			continue
		}
		ids = append(ids, name)
	}
	return ids, nil
}
