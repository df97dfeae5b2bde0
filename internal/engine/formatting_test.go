package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/retrieval"
)

func TestFormatMemoriesBlock_Empty(t *testing.T) {
	formatted, views := formatMemoriesBlock(nil)
	assert.Empty(t, formatted)
	assert.Nil(t, views)
}

func TestFormatMemoriesBlock_IncludesHeadlineAndFiles(t *testing.T) {
	m := &models.Memory{
		ID:           "m1",
		Headline:     "Use npm ci in CI",
		Content:      "npm install is nondeterministic in CI",
		RelatedFiles: []string{"package.json"},
	}
	formatted, views := formatMemoriesBlock([]retrieval.Candidate{{Memory: m}})
	assert.Contains(t, formatted, "Use npm ci in CI")
	assert.Contains(t, formatted, "package.json")
	assert.Len(t, views, 1)
	assert.Equal(t, "m1", views[0].ID)
}

func TestFormatPrimer_IncludesAllSections(t *testing.T) {
	now := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	primer := &models.PersonalPrimer{Content: "Works on the memory server."}
	summary := &models.SessionSummary{Summary: "Shipped the retrieval engine."}
	snapshot := &models.ProjectSnapshot{Snapshot: "Engine and lifecycle packages are done."}

	out := formatPrimer(now, primer, summary, snapshot)
	assert.Contains(t, out, "Monday, August 3, 2026")
	assert.Contains(t, out, "Works on the memory server.")
	assert.Contains(t, out, "Shipped the retrieval engine.")
	assert.Contains(t, out, "Engine and lifecycle packages are done.")
}

func TestFormatPrimer_HandlesNilSections(t *testing.T) {
	now := time.Now()
	out := formatPrimer(now, nil, nil, nil)
	assert.Contains(t, out, "Temporal context")
	assert.NotContains(t, out, "About you")
}
