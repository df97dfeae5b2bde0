package lifecycle

import (
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

// completionVerbs signal that session evidence described finished work,
// used by both the awaiting_implementation sweep and the action-cleared
// sweep (spec.md §4.3.2).
var completionVerbs = []string{
	"done", "completed", "finished", "implemented", "fixed", "resolved",
	"shipped", "merged", "deployed", "closed", "solved", "wrapped up",
}

// ImplicitOutcome counts what the implicit-transitions pass changed.
type ImplicitOutcome struct {
	ActionCleared         int
	ImplementationCleared int
	BlockersCleared       int
}

// ApplyImplicitTransitions runs spec.md §4.3.2's three sweeps against the
// project's active memories, using the session summary and snapshot text
// as evidence of what happened this session.
func ApplyImplicitTransitions(pdb *store.ProjectDB, summary, snapshot string) (ImplicitOutcome, error) {
	var out ImplicitOutcome
	evidence := strings.ToLower(summary + "\n" + snapshot)

	actives, err := pdb.ActiveMemories()
	if err != nil {
		return out, err
	}

	hasCompletionVerb := containsAny(evidence, completionVerbs)

	for _, m := range actives {
		changed := false

		if m.AwaitingImplementation && memoryMentioned(evidence, m) && hasCompletionVerb {
			m.AwaitingImplementation = false
			changed = true
			out.ImplementationCleared++
		}

		// Action-cleared sweep: false negatives are worse than false
		// positives (spec.md §4.3.2), so matching domain/feature plus any
		// completion verb anywhere in the evidence is enough to clear it.
		if m.ActionRequired && memoryMentioned(evidence, m) && hasCompletionVerb {
			m.ActionRequired = false
			changed = true
			out.ActionCleared++
		}

		if len(m.BlockedBy) > 0 {
			remaining := m.BlockedBy[:0:0]
			for _, blockerID := range m.BlockedBy {
				blocker, err := pdb.GetMemory(blockerID)
				if err != nil || blocker == nil {
					continue
				}
				if blocker.Status == models.StatusSuperseded || blocker.Status == models.StatusArchived {
					out.BlockersCleared++
					changed = true
					continue
				}
				remaining = append(remaining, blockerID)
			}
			m.BlockedBy = remaining
		}

		if changed {
			m.SessionUpdated++
			if err := pdb.PutMemory(m); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

// memoryMentioned reports whether the session evidence references m's
// domain or feature, the cheap metadata signal spec.md §4.3.2 calls for
// ("match against memories ... by domain/feature").
func memoryMentioned(evidence string, m *models.Memory) bool {
	if m.Domain != "" && strings.Contains(evidence, strings.ToLower(m.Domain)) {
		return true
	}
	if m.Feature != "" && strings.Contains(evidence, strings.ToLower(m.Feature)) {
		return true
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
