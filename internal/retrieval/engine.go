// Package retrieval implements the activation-signal retrieval engine:
// a pure function over an in-memory corpus that decides, per user
// message, which memories are worth surfacing. Philosophy: silence over
// noise — a memory surfaces only when multiple independent signals agree.
package retrieval

import (
	"sort"
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
)

// Query is the current retrieval request: the project to scope project-
// level memories to, the user's message, its embedding (nil if the
// Embedder is degraded or unavailable), and the set of memory ids this
// session has already surfaced.
type Query struct {
	ProjectID         string
	Message           string
	Embedding         []float32
	AlreadyInjected   map[string]bool
}

// Caps bounds the size of a selection.
type Caps struct {
	MaxGlobal int
	MaxTotal  int
}

// DefaultCaps matches spec.md §4.2's default cap: 5 project + 2 global.
func DefaultCaps() Caps {
	return Caps{MaxGlobal: 2, MaxTotal: 7}
}

// Candidate is a memory that survived the pre-filter, carrying the
// signals and score computed against the current query.
type Candidate struct {
	Memory     *models.Memory
	Signals    Signals
	Importance float64
}

// Result is the outcome of a Select call.
type Result struct {
	Selected []Candidate
}

// SelectedIDs returns the ids of every selected memory, for injected-set
// bookkeeping.
func (r Result) SelectedIDs() []string {
	ids := make([]string, 0, len(r.Selected))
	for _, c := range r.Selected {
		ids = append(ids, c.Memory.ID)
	}
	return ids
}

// Diagnostics records the observability data spec.md §4.2 requires for
// every retrieval, regardless of outcome.
type Diagnostics struct {
	CandidateCount      int
	PrefilteredCount    int
	RelevantCount       int
	SignalActivations   map[string]int
	SelectedProjectCount int
	SelectedGlobalCount  int
	BackfilledCount      int
}

// Select runs the full pipeline: pre-filter, signal extraction, relevance
// gate, importance ranking, ordering and selection, related backfill.
// corpus is the union of the current project's active memories and the
// global project's active memories; the caller is responsible for that
// union (spec.md §4.1's "every retrieval reads project ∪ global").
func Select(corpus []*models.Memory, q Query, caps Caps) (Result, Diagnostics) {
	diag := Diagnostics{
		CandidateCount:    len(corpus),
		SignalActivations: map[string]int{},
	}

	lowerMessage := strings.ToLower(q.Message)
	qq := newQuery(q.Message, q.Embedding)

	survivors := make([]*models.Memory, 0, len(corpus))
	for _, m := range corpus {
		if prefilterExcludes(m, q, lowerMessage) {
			continue
		}
		survivors = append(survivors, m)
	}
	diag.PrefilteredCount = len(survivors)

	candidates := make([]Candidate, 0, len(survivors))
	for _, m := range survivors {
		sig := computeSignals(m, qq)
		recordSignalActivations(diag.SignalActivations, sig)
		if sig.Count() < 2 {
			continue
		}
		candidates = append(candidates, Candidate{
			Memory:     m,
			Signals:    sig,
			Importance: importanceScore(m, sig, lowerMessage),
		})
	}
	diag.RelevantCount = len(candidates)

	if len(candidates) == 0 {
		return Result{}, diag
	}

	selected, backfilled := selectCandidates(candidates, caps)
	diag.BackfilledCount = backfilled
	for _, c := range selected {
		if c.Memory.Scope == models.ScopeGlobal {
			diag.SelectedGlobalCount++
		} else {
			diag.SelectedProjectCount++
		}
	}

	return Result{Selected: selected}, diag
}

// prefilterExcludes implements the binary exclusions of spec.md §4.2.
func prefilterExcludes(m *models.Memory, q Query, lowerMessage string) bool {
	if m.Status != models.StatusActive {
		return true
	}
	if m.ExcludeFromRetrieval {
		return true
	}
	if m.SupersededBy != nil {
		return true
	}
	if m.Scope == models.ScopeProject && m.ProjectID != q.ProjectID {
		return true
	}
	for _, anti := range m.AntiTriggers {
		if containsSubstring(lowerMessage, anti) {
			return true
		}
	}
	if q.AlreadyInjected != nil && q.AlreadyInjected[m.ID] {
		return true
	}
	return false
}

func recordSignalActivations(counts map[string]int, s Signals) {
	if s.Trigger {
		counts["trigger"]++
	}
	if s.Tags {
		counts["tags"]++
	}
	if s.Domain {
		counts["domain"]++
	}
	if s.Feature {
		counts["feature"]++
	}
	if s.Content {
		counts["content"]++
	}
	if s.Vector {
		counts["vector"]++
	}
}

// selectCandidates implements ordering & selection per spec.md §4.2:
// sort by (signal_count desc, importance desc); split global/project;
// re-sort globals by priority table, cap at MaxGlobal; fill the rest of
// MaxTotal from project candidates sorted by (action_required desc,
// signal_count desc, importance desc); then related backfill.
func selectCandidates(candidates []Candidate, caps Caps) ([]Candidate, int) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Signals.Count() != candidates[j].Signals.Count() {
			return candidates[i].Signals.Count() > candidates[j].Signals.Count()
		}
		return candidates[i].Importance > candidates[j].Importance
	})

	var globals, projects []Candidate
	for _, c := range candidates {
		if c.Memory.Scope == models.ScopeGlobal {
			globals = append(globals, c)
		} else {
			projects = append(projects, c)
		}
	}

	sort.SliceStable(globals, func(i, j int) bool {
		pi, pj := globalPriority(globals[i].Memory.ContextType), globalPriority(globals[j].Memory.ContextType)
		if pi != pj {
			return pi < pj
		}
		if globals[i].Signals.Count() != globals[j].Signals.Count() {
			return globals[i].Signals.Count() > globals[j].Signals.Count()
		}
		return globals[i].Importance > globals[j].Importance
	})
	if len(globals) > caps.MaxGlobal {
		globals = globals[:caps.MaxGlobal]
	}

	sort.SliceStable(projects, func(i, j int) bool {
		ai, aj := boolRank(projects[i].Memory.ActionRequired), boolRank(projects[j].Memory.ActionRequired)
		if ai != aj {
			return ai > aj
		}
		if projects[i].Signals.Count() != projects[j].Signals.Count() {
			return projects[i].Signals.Count() > projects[j].Signals.Count()
		}
		return projects[i].Importance > projects[j].Importance
	})

	selected := make([]Candidate, 0, caps.MaxTotal)
	selectedIDs := make(map[string]bool, caps.MaxTotal)
	for _, c := range globals {
		if len(selected) >= caps.MaxTotal {
			break
		}
		selected = append(selected, c)
		selectedIDs[c.Memory.ID] = true
	}
	for _, c := range projects {
		if len(selected) >= caps.MaxTotal {
			break
		}
		if selectedIDs[c.Memory.ID] {
			continue
		}
		selected = append(selected, c)
		selectedIDs[c.Memory.ID] = true
	}

	backfilled := 0
	if len(selected) < caps.MaxTotal {
		related := unionRelatedIDs(selected)
		byID := make(map[string]Candidate, len(candidates))
		for _, c := range candidates {
			byID[c.Memory.ID] = c
		}
		for id := range related {
			if len(selected) >= caps.MaxTotal {
				break
			}
			if selectedIDs[id] {
				continue
			}
			c, ok := byID[id]
			if !ok {
				continue
			}
			selected = append(selected, c)
			selectedIDs[id] = true
			backfilled++
		}
	}

	return selected, backfilled
}

func unionRelatedIDs(selected []Candidate) map[string]bool {
	set := make(map[string]bool)
	for _, c := range selected {
		for _, id := range c.Memory.RelatedTo {
			set[id] = true
		}
	}
	return set
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// globalPriorityTable is spec.md §4.2's global selection priority table.
// "preference" has no corresponding context_type (see SPEC_FULL.md §9
// decision 4) and is therefore unreachable; types absent from this table
// sort after every listed type.
var globalPriorityTable = map[models.ContextType]int{
	models.ContextTypeTechnical:    1,
	models.ContextTypeArchitecture: 3,
	models.ContextTypeWorkflow:     4,
	models.ContextTypeDecision:     5,
	models.ContextTypeBreakthrough: 6,
	models.ContextTypePhilosophy:   7,
	models.ContextTypePersonal:     8,
}

func globalPriority(ct models.ContextType) int {
	if p, ok := globalPriorityTable[ct]; ok {
		return p
	}
	return 9
}
