// Package migration implements an idempotent schema upgrader:
// canonicalizing legacy free-form context types, renaming
// temporal_relevance to temporal_class, dropping retired fields, backfilling
// fade_rate on pre-decay records, and (re)generating embeddings. Same shape
// as the index layer's runMigrations — versioned, guarded, idempotent steps —
// adapted from ALTER TABLE column migrations to file-layer record rewrites,
// since the target here is markdown+YAML records, not SQL columns.
package migration

import (
	"context"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/RLabs-Inc/memory/internal/embedding"
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

// obsoleteFields are deleted unconditionally from every record's raw
// frontmatter regardless of schema version (spec.md §4.5).
var obsoleteFields = []string{
	"emotional_resonance", "knowledge_domain", "component",
	"parent_id", "child_ids",
	"prerequisite", "follow_up", "dependency",
}

// preDecayOnlyFields are deleted only from records that predate the decay
// fields' current semantics (SPEC_FULL.md §9 decision 6) — detected by the
// absence of fade_rate, since every record that has ever passed through
// Memory.ApplyDefaults carries a fade_rate.
var preDecayOnlyFields = []string{"retrieval_weight", "expires_after_sessions"}

// Options carries the custom context_type remap table spec.md §4.5 allows
// operators to overlay on the built-in legacy table.
type Options struct {
	ContextTypeRemap map[string]models.ContextType
}

// Result summarizes one migration run for logging/reporting.
type Result struct {
	ProjectsScanned       int
	MemoriesScanned       int
	MemoriesMigrated      int
	EmbeddingsRegenerated int
}

// Run sweeps every project's memory files, canonicalizing legacy shapes and
// regenerating stale or missing embeddings. Safe to call on every startup —
// a record that needs no change is never rewritten (SPEC_FULL.md's P4:
// running migration twice yields byte-identical files, because the second
// run makes no writes at all).
func Run(ctx context.Context, s *store.Store, embedder embedding.Embedder, opts Options, logger *slog.Logger) (*Result, error) {
	result := &Result{}

	projectIDs, err := s.ProjectIDs()
	if err != nil {
		return result, err
	}

	for _, projectID := range projectIDs {
		result.ProjectsScanned++
		pdb, err := s.OpenProject(projectID)
		if err != nil {
			return result, err
		}

		ids, err := pdb.RawMemoryIDs()
		if err != nil {
			return result, err
		}

		for _, id := range ids {
			result.MemoriesScanned++
			migrated, reembedded, err := migrateOne(ctx, pdb, id, embedder, opts)
			if err != nil {
				logger.Error("migration: record failed, skipping", "project_id", projectID, "memory_id", id, "error", err)
				continue
			}
			if migrated {
				result.MemoriesMigrated++
			}
			if reembedded {
				result.EmbeddingsRegenerated++
			}
		}
	}

	return result, nil
}

func migrateOne(ctx context.Context, pdb *store.ProjectDB, id string, embedder embedding.Embedder, opts Options) (migrated, reembedded bool, err error) {
	raw, body, err := pdb.ReadRawMemory(id)
	if err != nil {
		return false, false, err
	}

	changed := canonicalizeContextType(raw, opts.ContextTypeRemap)
	changed = renameTemporalRelevance(raw) || changed
	changed = deleteObsoleteFields(raw) || changed

	version, _ := raw["schema_version"].(int)
	if version < models.CurrentSchemaVersion {
		raw["schema_version"] = models.CurrentSchemaVersion
		changed = true
	}

	_, hadFadeRate := raw["fade_rate"]

	var m models.Memory
	fm, err := yaml.Marshal(raw)
	if err != nil {
		return false, false, err
	}
	if err := yaml.Unmarshal(fm, &m); err != nil {
		return false, false, err
	}
	m.Content = body
	m.ID = id
	m.ApplyDefaults()

	// ApplyDefaults only backfills fade_rate when status is also unset,
	// a proxy for "first creation" that holds for the curator-persist path
	// but not here: an existing record read back off disk already has
	// status=active (or similar) by the time migration sees it. A legacy
	// record that predates decay (no fade_rate key at all) would otherwise
	// be silently left at fade_rate=0 forever, unable to ever decay.
	if !hadFadeRate {
		d, ok := models.DefaultsByType[m.ContextType]
		if !ok {
			d = models.DefaultsByType[models.ContextTypeTechnical]
		}
		if m.FadeRate != d.FadeRate {
			m.FadeRate = d.FadeRate
			changed = true
		}
	}

	if len(m.Embedding) != models.EmbeddingDimensions || m.EmbeddingStale {
		if embedder != nil {
			vec, err := embedder.Embed(ctx, m.Content)
			if err == nil {
				m.Embedding = vec
				m.EmbeddingStale = false
				reembedded = true
				changed = true
			}
		}
	}

	if !changed {
		return false, false, nil
	}

	if err := m.Validate(); err != nil {
		return false, false, err
	}
	if err := pdb.PutMemory(&m); err != nil {
		return false, false, err
	}
	return true, reembedded, nil
}

// canonicalizeContextType remaps raw["context_type"] onto the canonical
// 11-value enum via models.CanonicalContextType. Reports whether the value
// changed.
func canonicalizeContextType(raw map[string]any, custom map[string]models.ContextType) bool {
	current, _ := raw["context_type"].(string)
	canonical := models.CanonicalContextType(current, custom)
	if string(canonical) == current {
		return false
	}
	raw["context_type"] = string(canonical)
	return true
}

// renameTemporalRelevance copies a legacy temporal_relevance value onto
// temporal_class when temporal_class is absent, then deletes the old key.
func renameTemporalRelevance(raw map[string]any) bool {
	legacy, ok := raw["temporal_relevance"]
	if !ok {
		return false
	}
	delete(raw, "temporal_relevance")
	if _, hasCurrent := raw["temporal_class"]; !hasCurrent {
		raw["temporal_class"] = legacy
	}
	return true
}

func deleteObsoleteFields(raw map[string]any) bool {
	changed := false
	for _, field := range obsoleteFields {
		if _, ok := raw[field]; ok {
			delete(raw, field)
			changed = true
		}
	}
	if _, hasFadeRate := raw["fade_rate"]; !hasFadeRate {
		for _, field := range preDecayOnlyFields {
			if _, ok := raw[field]; ok {
				delete(raw, field)
				changed = true
			}
		}
	}
	return changed
}
