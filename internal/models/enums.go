package models

import "strings"

// ContextType is the closed classification of what a memory represents.
// Legacy corpora carried 170+ stringly-typed free-form values; this is the
// canonical 11-value sum type everything collapses onto at ingestion.
type ContextType string

const (
	ContextTypeTechnical    ContextType = "technical"
	ContextTypeDebug        ContextType = "debug"
	ContextTypeArchitecture ContextType = "architecture"
	ContextTypeDecision     ContextType = "decision"
	ContextTypePersonal     ContextType = "personal"
	ContextTypePhilosophy   ContextType = "philosophy"
	ContextTypeWorkflow     ContextType = "workflow"
	ContextTypeMilestone    ContextType = "milestone"
	ContextTypeBreakthrough ContextType = "breakthrough"
	ContextTypeUnresolved   ContextType = "unresolved"
	ContextTypeState        ContextType = "state"
)

var validContextTypes = map[ContextType]bool{
	ContextTypeTechnical:    true,
	ContextTypeDebug:        true,
	ContextTypeArchitecture: true,
	ContextTypeDecision:     true,
	ContextTypePersonal:     true,
	ContextTypePhilosophy:   true,
	ContextTypeWorkflow:     true,
	ContextTypeMilestone:    true,
	ContextTypeBreakthrough: true,
	ContextTypeUnresolved:   true,
	ContextTypeState:        true,
}

func (c ContextType) IsValid() bool { return validContextTypes[c] }

// Scope controls whether a memory is visible from every project or only its own.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

func (s Scope) IsValid() bool { return s == ScopeGlobal || s == ScopeProject }

// TemporalClass governs decay behavior — how long a memory is expected to matter.
type TemporalClass string

const (
	TemporalEternal     TemporalClass = "eternal"
	TemporalLongTerm    TemporalClass = "long_term"
	TemporalMediumTerm  TemporalClass = "medium_term"
	TemporalShortTerm   TemporalClass = "short_term"
	TemporalEphemeral   TemporalClass = "ephemeral"
)

func (t TemporalClass) IsValid() bool {
	switch t {
	case TemporalEternal, TemporalLongTerm, TemporalMediumTerm, TemporalShortTerm, TemporalEphemeral:
		return true
	}
	return false
}

// Status is the lifecycle state of a memory. Transitions are governed
// exclusively by the lifecycle package's state machine.
type Status string

const (
	StatusActive     Status = "active"
	StatusPending    Status = "pending"
	StatusSuperseded Status = "superseded"
	StatusDeprecated Status = "deprecated"
	StatusArchived   Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusSuperseded, StatusDeprecated, StatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether s is a terminal lifecycle state. No transition
// out of a terminal state is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusSuperseded || s == StatusArchived
}

// TypeDefaults holds the per-context-type defaults applied when the curator
// omits a field (invariant 6). This is a constant table, not scattered
// conditionals, per the design notes.
type TypeDefaults struct {
	TemporalClass        TemporalClass
	FadeRate             float64
	Scope                Scope
	ExpiresAfterSessions int // 0 means "does not expire on session count"
}

// DefaultsByType is the constant defaults table keyed by context type.
var DefaultsByType = map[ContextType]TypeDefaults{
	ContextTypeTechnical:    {TemporalLongTerm, 0.02, ScopeProject, 0},
	ContextTypeDebug:        {TemporalMediumTerm, 0.05, ScopeProject, 0},
	ContextTypeArchitecture: {TemporalLongTerm, 0.01, ScopeProject, 0},
	ContextTypeDecision:     {TemporalLongTerm, 0.02, ScopeProject, 0},
	ContextTypePersonal:     {TemporalEternal, 0.0, ScopeGlobal, 0},
	ContextTypePhilosophy:   {TemporalEternal, 0.0, ScopeGlobal, 0},
	ContextTypeWorkflow:     {TemporalMediumTerm, 0.04, ScopeProject, 0},
	ContextTypeMilestone:    {TemporalLongTerm, 0.01, ScopeProject, 0},
	ContextTypeBreakthrough: {TemporalLongTerm, 0.01, ScopeProject, 0},
	ContextTypeUnresolved:   {TemporalShortTerm, 0.08, ScopeProject, 0},
	ContextTypeState:        {TemporalEphemeral, 0.15, ScopeProject, 3},
}

// legacyContextTypeMap maps known legacy free-form values onto the canonical
// 11. Overlaid by any custom remap table supplied to the migrator.
var legacyContextTypeMap = map[string]ContextType{
	"bug":            ContextTypeDebug,
	"bugfix":         ContextTypeDebug,
	"fix":            ContextTypeDebug,
	"troubleshoot":   ContextTypeDebug,
	"design":         ContextTypeArchitecture,
	"structure":      ContextTypeArchitecture,
	"choice":         ContextTypeDecision,
	"tradeoff":       ContextTypeDecision,
	"identity":       ContextTypePersonal,
	"relationship":   ContextTypePersonal,
	"belief":         ContextTypePhilosophy,
	"principle":      ContextTypePhilosophy,
	"process":        ContextTypeWorkflow,
	"pipeline":       ContextTypeWorkflow,
	"achievement":    ContextTypeMilestone,
	"insight":        ContextTypeBreakthrough,
	"discovery":      ContextTypeBreakthrough,
	"todo":           ContextTypeUnresolved,
	"open_question":  ContextTypeUnresolved,
	"current_state":  ContextTypeState,
	"status":         ContextTypeState,
}

// CanonicalContextType resolves a legacy free-form value to one of the 11
// canonical types: exact canonical match, then the built-in legacy table
// (overlaid by custom), then a substring fuzzy fallback, then "technical" —
// a lossless fallback per the design notes, never a rejection.
func CanonicalContextType(raw string, custom map[string]ContextType) ContextType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if ct := ContextType(lower); ct.IsValid() {
		return ct
	}
	if custom != nil {
		if ct, ok := custom[lower]; ok {
			return ct
		}
	}
	if ct, ok := legacyContextTypeMap[lower]; ok {
		return ct
	}
	for needle, ct := range legacyContextTypeMap {
		if strings.Contains(lower, needle) {
			return ct
		}
	}
	for ct := range validContextTypes {
		if strings.Contains(lower, string(ct)) {
			return ct
		}
	}
	return ContextTypeTechnical
}

// GlobalProjectID is the sentinel project id for cross-project knowledge.
const GlobalProjectID = "global"

// CurrentSchemaVersion is the schema version new records are written at.
const CurrentSchemaVersion = 1
