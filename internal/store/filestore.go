package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RLabs-Inc/memory/internal/models"
)

// writeDoc serializes frontmatter as YAML, writes it between --- delimiters,
// and appends body below the second delimiter. This is the file-layer
// format spec.md §6 calls "UTF-8 markdown with YAML frontmatter."
func writeDoc(path string, frontmatter any, body string) error {
	fm, err := yaml.Marshal(frontmatter)
	if err != nil {
		return newSchemaError("marshal frontmatter", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newIOError("mkdir", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return newIOError("write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return newIOError("rename temp file", err)
	}
	return nil
}

// readDoc parses a frontmatter document, populating frontmatter and
// returning the body below the second delimiter.
func readDoc(path string, frontmatter any) (body string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", newNotFoundError("read doc")
		}
		return "", newIOError("read doc", err)
	}

	content := string(data)
	trimmed := strings.TrimLeft(content, "\ufeff \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return "", newSchemaError("parse doc", fmt.Errorf("missing frontmatter delimiter"))
	}
	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", newSchemaError("parse doc", fmt.Errorf("missing closing frontmatter delimiter"))
	}
	yamlBlock := rest[:idx]
	after := rest[idx+4:]
	after = strings.TrimPrefix(after, "\n")
	after = strings.TrimPrefix(after, "\r\n")
	body = strings.TrimSuffix(after, "\n")
	if strings.HasPrefix(body, "\n") {
		body = strings.TrimPrefix(body, "\n")
	}

	if err := yaml.Unmarshal([]byte(yamlBlock), frontmatter); err != nil {
		return "", newSchemaError("unmarshal frontmatter", err)
	}
	return body, nil
}

// --- per-record file paths, rooted at a project (or global) directory ---

func memoryPath(root string, id string) string {
	return filepath.Join(root, "memories", id+".md")
}

func sessionPath(root string, id string) string {
	return filepath.Join(root, "sessions", id+".md")
}

func summaryPath(root string, id string) string {
	return filepath.Join(root, "summaries", id+".md")
}

func snapshotPath(root string, id string) string {
	return filepath.Join(root, "snapshots", id+".md")
}

func managementLogPath(root string, id string) string {
	return filepath.Join(root, "management-logs", id+".md")
}

func primerPath(root string) string {
	return filepath.Join(root, "primer", "personal-primer.md")
}

// --- Memory ---

func writeMemoryFile(root string, m *models.Memory) error {
	return writeDoc(memoryPath(root, m.ID), m, m.Content)
}

func readMemoryFile(root, id string) (*models.Memory, error) {
	var m models.Memory
	body, err := readDoc(memoryPath(root, id), &m)
	if err != nil {
		return nil, err
	}
	m.Content = body
	return &m, nil
}

func deleteMemoryFile(root, id string) error {
	if err := os.Remove(memoryPath(root, id)); err != nil && !os.IsNotExist(err) {
		return newIOError("delete memory file", err)
	}
	return nil
}

// --- Session ---

func writeSessionFile(root string, s *models.Session) error {
	return writeDoc(sessionPath(root, s.SessionID), s, "")
}

func readSessionFile(root, id string) (*models.Session, error) {
	var s models.Session
	if _, err := readDoc(sessionPath(root, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- SessionSummary ---

func writeSummaryFile(root string, s *models.SessionSummary) error {
	return writeDoc(summaryPath(root, s.ID), s, s.Summary)
}

func readSummaryFile(root, id string) (*models.SessionSummary, error) {
	var s models.SessionSummary
	body, err := readDoc(summaryPath(root, id), &s)
	if err != nil {
		return nil, err
	}
	s.Summary = body
	return &s, nil
}

// --- ProjectSnapshot ---

func writeSnapshotFile(root string, s *models.ProjectSnapshot) error {
	return writeDoc(snapshotPath(root, s.ID), s, s.Snapshot)
}

func readSnapshotFile(root, id string) (*models.ProjectSnapshot, error) {
	var s models.ProjectSnapshot
	body, err := readDoc(snapshotPath(root, id), &s)
	if err != nil {
		return nil, err
	}
	s.Snapshot = body
	return &s, nil
}

// --- ManagementLog ---

func writeManagementLogFile(root string, l *models.ManagementLog) error {
	return writeDoc(managementLogPath(root, l.ID), l, l.Report)
}

func readManagementLogFile(root, id string) (*models.ManagementLog, error) {
	var l models.ManagementLog
	body, err := readDoc(managementLogPath(root, id), &l)
	if err != nil {
		return nil, err
	}
	l.Report = body
	return &l, nil
}

// --- PersonalPrimer ---

func primerExists(root string) bool {
	_, err := os.Stat(primerPath(root))
	return err == nil
}

func writePrimerFile(root string, p *models.PersonalPrimer) error {
	return writeDoc(primerPath(root), p, p.Content)
}

func readPrimerFile(root string) (*models.PersonalPrimer, error) {
	var p models.PersonalPrimer
	body, err := readDoc(primerPath(root), &p)
	if err != nil {
		return nil, err
	}
	p.Content = body
	return &p, nil
}

// --- raw frontmatter access, for the Migration component only ---

// RawMemoryIDs lists every memory id on disk for a project, independent of
// the SQLite index — the migration pass must see records an import may have
// dropped into the file layer directly, before they've ever been indexed.
func (p *ProjectDB) RawMemoryIDs() ([]string, error) {
	return listIDs(filepath.Join(p.root, "memories"))
}

// ReadRawMemory parses a memory file's frontmatter into a generic map
// instead of models.Memory, so migration can see fields the current struct
// no longer declares (legacy free-form context_type values, temporal_relevance,
// and the other fields spec.md §4.5 retires).
func (p *ProjectDB) ReadRawMemory(id string) (map[string]any, string, error) {
	frontmatter := map[string]any{}
	body, err := readDoc(memoryPath(p.root, id), &frontmatter)
	if err != nil {
		return nil, "", err
	}
	return frontmatter, body, nil
}

// ProjectRoot exposes the project's file-layer root directory. Nothing
// in this module calls it.
func (p *ProjectDB) ProjectRoot() string { return p.root }

// listIDs returns the record ids (filename without .md) present in dir.
// Missing directories yield an empty slice, not an error.
func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newIOError("list dir", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".md") && !strings.HasSuffix(name, ".tmp") {
			ids = append(ids, strings.TrimSuffix(name, ".md"))
		}
	}
	return ids, nil
}
