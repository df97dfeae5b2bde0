package retrieval

import (
	"strings"

	"github.com/RLabs-Inc/memory/internal/models"
)

// contextTypeKeywords is the context-type keyword table spec.md §4.2
// uses for the "+0.10 if the message contains a keyword associated with
// the memory's context_type" importance bonus. Types absent from the
// table (personal, decision's siblings already covered, milestone,
// unresolved, state) simply never earn the bonus.
var contextTypeKeywords = map[models.ContextType][]string{
	models.ContextTypeDebug:        {"debug", "bug", "error", "fix", "issue", "problem", "broken"},
	models.ContextTypeDecision:     {"decide", "decision", "choose", "choice", "option", "should"},
	models.ContextTypeArchitecture: {"architect", "design", "structure", "pattern", "how"},
	models.ContextTypeBreakthrough: {"insight", "realize", "understand", "discover", "why"},
	models.ContextTypeTechnical:    {"implement", "code", "function", "method", "api"},
	models.ContextTypeWorkflow:     {"process", "workflow", "step", "flow", "pipeline"},
	models.ContextTypePhilosophy:   {"philosophy", "principle", "belief", "approach", "think"},
}

// problemKeywords is the keyword set for the problem_solution_pair bonus.
var problemKeywords = []string{"error", "bug", "issue", "problem", "wrong", "fail", "broken", "help", "stuck"}

// importanceScore computes the additive importance score spec.md §4.2
// defines for a candidate that has already passed the relevance gate.
func importanceScore(m *models.Memory, s Signals, lowerMessage string) float64 {
	score := m.ImportanceWeight
	if score == 0 {
		score = 0.5
	}

	switch {
	case s.Count() >= 4:
		score += 0.20
	case s.Count() >= 3:
		score += 0.10
	}

	if m.AwaitingImplementation {
		score += 0.15
	}
	if m.AwaitingDecision {
		score += 0.10
	}

	if keywords, ok := contextTypeKeywords[m.ContextType]; ok && containsAny(lowerMessage, keywords) {
		score += 0.10
	}

	if m.ProblemSolutionPair && containsAny(lowerMessage, problemKeywords) {
		score += 0.10
	}

	switch m.TemporalClass {
	case models.TemporalEternal:
		score += 0.10
	case models.TemporalLongTerm:
		score += 0.05
	case models.TemporalEphemeral:
		if m.SessionsSinceSurfaced <= 1 {
			score += 0.10
		}
	}

	if m.ConfidenceScore < 0.5 {
		score -= 0.10
	}

	return score
}

// containsAny reports whether any keyword appears as a substring of the
// already-lowercased message.
func containsAny(lowerMessage string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowerMessage, k) {
			return true
		}
	}
	return false
}
