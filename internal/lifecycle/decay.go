package lifecycle

import (
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

// minRetrievalWeight is the floor decay never crosses (spec.md §4.3.3).
const minRetrievalWeight = 0.1

// ApplyDecay runs the per-session-start decay pass (spec.md §4.3.3):
// every memory with fade_rate > 0 ages by one session and loses
// fade_rate of retrieval_weight down to the floor; ephemeral memories
// past their expiry window archive. Returns the number of memories
// touched.
func ApplyDecay(pdb *store.ProjectDB) (int, error) {
	actives, err := pdb.ActiveMemories()
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, m := range actives {
		if m.FadeRate <= 0 {
			continue
		}

		m.SessionsSinceSurfaced++
		next := m.RetrievalWeight - m.FadeRate
		if next < minRetrievalWeight {
			next = minRetrievalWeight
		}
		m.RetrievalWeight = next

		if m.TemporalClass == models.TemporalEphemeral && m.ExpiresAfterSessions > 0 &&
			m.SessionsSinceSurfaced > m.ExpiresAfterSessions {
			if err := Transition(m, models.StatusArchived); err != nil {
				return touched, err
			}
		}

		if err := pdb.PutMemory(m); err != nil {
			return touched, err
		}
		touched++
	}
	return touched, nil
}

// RestoreOnSurface resets decay bookkeeping for memories the Retrieval
// Engine just surfaced successfully (spec.md §4.3.3's "on surfacing"
// rule): sessions_since_surfaced resets to zero, retrieval_weight is
// restored to importance_weight (SPEC_FULL.md §9 decision 2), and
// last_surfaced is stamped with the current session number.
func RestoreOnSurface(pdb *store.ProjectDB, ids []string, sessionNumber int) error {
	for _, id := range ids {
		m, err := pdb.GetMemory(id)
		if err != nil {
			continue
		}
		m.SessionsSinceSurfaced = 0
		m.RetrievalWeight = m.ImportanceWeight
		m.LastSurfaced = sessionNumber
		if err := pdb.PutMemory(m); err != nil {
			return err
		}
	}
	return nil
}
