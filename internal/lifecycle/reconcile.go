package lifecycle

import (
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

// relatedVectorThreshold and relatedCap bound the implicit related_to
// discovery so a busy domain doesn't turn into a fully-connected graph.
const (
	relatedVectorThreshold = 0.55
	relatedCap             = 5
	supersedeVectorBound   = 10
)

// reversalKeywords signal that a new architecture/decision memory explicitly
// overturns an earlier one of the same domain+feature (spec.md §4.3.1).
var reversalKeywords = []string{
	"instead of", "no longer", "replaced", "replaces", "deprecated",
	"supersede", "supersedes", "changed from", "switched to", "now using",
	"reverted", "abandoned in favor of",
}

// ReconcileOutcome counts what reconciliation did to a single new memory,
// feeding the management log's counters.
type ReconcileOutcome struct {
	Superseded int
	Resolved   int
	Linked     int
}

// Reconcile runs relationship reconciliation for one newly-created memory
// against the project's existing active memories (spec.md §4.3.1):
// explicit curator-set supersedes/resolves are invariant-enforced first,
// then implicit supersession is discovered via the trigger matrix, then
// remaining metadata-matched candidates are linked as related_to.
func Reconcile(pdb *store.ProjectDB, m *models.Memory) (ReconcileOutcome, error) {
	var out ReconcileOutcome

	if m.Supersedes != nil {
		if err := supersede(pdb, *m.Supersedes, m); err == nil {
			out.Superseded++
		} else if err != errNotFound {
			return out, err
		}
	}
	for _, id := range m.Resolves {
		if err := resolve(pdb, id, m); err == nil {
			out.Resolved++
		} else if err != errNotFound {
			return out, err
		}
	}

	candidates, err := pdb.CandidatesByMetadata(m.Domain, m.Feature, m.ContextType)
	if err != nil {
		return out, err
	}
	candidates = withoutID(candidates, m.ID)

	if m.Supersedes == nil {
		switch m.ContextType {
		case models.ContextTypeState:
			for _, c := range candidates {
				if c.ContextType != models.ContextTypeState || c.Status != models.StatusActive {
					continue
				}
				if err := supersede(pdb, c.ID, m); err != nil {
					return out, err
				}
				c.Status = models.StatusSuperseded
				out.Superseded++
			}
		case models.ContextTypeArchitecture, models.ContextTypeDecision:
			if containsReversalLanguage(m.Content) || containsReversalLanguage(m.Reasoning) {
				for _, c := range candidates {
					if c.Status != models.StatusActive || c.ContextType != m.ContextType {
						continue
					}
					if err := supersede(pdb, c.ID, m); err != nil {
						return out, err
					}
					c.Status = models.StatusSuperseded
					out.Superseded++
				}
			}
		}
	}

	linked, err := linkRelated(pdb, m, candidates)
	if err != nil {
		return out, err
	}
	out.Linked += linked

	return out, nil
}

// supersede sets old.status=superseded, old.superseded_by=new.id,
// new.supersedes=old.id — maintaining invariant 1's inverse unconditionally.
func supersede(pdb *store.ProjectDB, oldID string, new *models.Memory) error {
	old, err := pdb.GetMemory(oldID)
	if err != nil {
		return errNotFound
	}
	if old.Status == models.StatusSuperseded {
		return nil
	}
	if err := Transition(old, models.StatusSuperseded); err != nil {
		return err
	}
	old.SupersededBy = &new.ID
	if err := pdb.PutMemory(old); err != nil {
		return err
	}
	if new.Supersedes == nil || *new.Supersedes != oldID {
		new.Supersedes = &oldID
	}
	return nil
}

// resolve sets old.status=superseded, old.resolved_by=new.id, and confirms
// invariant 3 (resolved_by=X ⇒ id(this) ∈ X.resolves).
func resolve(pdb *store.ProjectDB, oldID string, new *models.Memory) error {
	old, err := pdb.GetMemory(oldID)
	if err != nil {
		return errNotFound
	}
	if old.Status == models.StatusSuperseded {
		return nil
	}
	if err := Transition(old, models.StatusSuperseded); err != nil {
		return err
	}
	old.ResolvedBy = &new.ID
	if err := pdb.PutMemory(old); err != nil {
		return err
	}
	found := false
	for _, id := range new.Resolves {
		if id == oldID {
			found = true
			break
		}
	}
	if !found {
		new.Resolves = append(new.Resolves, oldID)
	}
	return nil
}

// linkRelated appends m to related_to on both sides for any active
// metadata candidate that wasn't just superseded/resolved, bounded by
// vector similarity (when an embedding is available) and relatedCap.
func linkRelated(pdb *store.ProjectDB, m *models.Memory, candidates []*models.Memory) (int, error) {
	linked := 0
	for _, c := range candidates {
		if linked >= relatedCap {
			break
		}
		if c.Status != models.StatusActive || c.ID == m.ID {
			continue
		}
		if m.HasRelatedTo(c.ID) {
			continue
		}
		if len(m.Embedding) > 0 && len(c.Embedding) > 0 {
			if !withinThreshold(m.Embedding, c.Embedding, relatedVectorThreshold) {
				continue
			}
		}
		m.AddRelatedTo(c.ID)
		c.AddRelatedTo(m.ID)
		if err := pdb.PutMemory(c); err != nil {
			return linked, err
		}
		linked++
	}
	return linked, nil
}

func withoutID(memories []*models.Memory, id string) []*models.Memory {
	out := make([]*models.Memory, 0, len(memories))
	for _, m := range memories {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func containsReversalLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range reversalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
