package lifecycle

import (
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

// primerWorthyKeywords are the core-identity/family/relationship-milestone
// signals spec.md §4.3.4 names as primer-worthy. The curator already did
// the judgement work of tagging the memory personal+global; this is a
// cheap secondary filter against over-merging every personal aside.
var primerWorthyKeywords = []string{
	"name is", "my name", "i am", "i'm a", "i work", "i live",
	"married", "wife", "husband", "partner", "son", "daughter", "child",
	"family", "born", "birthday", "anniversary",
}

// MaintainPrimer implements spec.md §4.3.4: for every new personal+global
// memory that looks primer-worthy, merge its fact into the singleton
// personal primer, creating it if it doesn't exist yet. The primer is the
// only file this package may create; everything else is an update.
func MaintainPrimer(s *store.Store, newMemories []*models.Memory) (int, error) {
	merged := 0
	for _, m := range newMemories {
		if m.ContextType != models.ContextTypePersonal || m.Scope != models.ScopeGlobal {
			continue
		}
		if !isPrimerWorthy(m) {
			continue
		}

		fact := m.Headline
		err := s.WithPrimerLock(func(current *models.PersonalPrimer) (string, bool, error) {
			if current == nil {
				return "# Personal primer\n\n- " + fact + "\n", false, nil
			}
			if strings.Contains(current.Content, fact) {
				return "", true, nil // already merged, skip
			}
			return current.Content + "- " + fact + "\n", false, nil
		})
		if err != nil {
			return merged, err
		}
		merged++
	}
	return merged, nil
}

func isPrimerWorthy(m *models.Memory) bool {
	text := strings.ToLower(m.Headline + " " + m.Content)
	return containsAny(text, primerWorthyKeywords)
}
