package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/retrieval"
)

// formatMemoriesBlock renders the ready-to-inject markdown block and its
// structured counterpart for a retrieval selection.
func formatMemoriesBlock(selected []retrieval.Candidate) (string, []models.StoredMemoryView) {
	if len(selected) == 0 {
		return "", nil
	}

	views := make([]models.StoredMemoryView, 0, len(selected))
	var b strings.Builder
	b.WriteString("## Relevant memories\n\n")
	for _, c := range selected {
		m := c.Memory
		views = append(views, models.StoredMemoryView{
			ID:               m.ID,
			Headline:         m.Headline,
			Content:          m.Content,
			ContextType:      string(m.ContextType),
			ImportanceWeight: m.ImportanceWeight,
			RelatedFiles:     m.RelatedFiles,
			ActionRequired:   m.ActionRequired,
		})

		fmt.Fprintf(&b, "- **%s**", m.Headline)
		if m.ActionRequired {
			b.WriteString(" _(action required)_")
		}
		b.WriteString("\n")
		if m.Content != "" {
			fmt.Fprintf(&b, "  %s\n", m.Content)
		}
		if len(m.RelatedFiles) > 0 {
			fmt.Fprintf(&b, "  Files: %s\n", strings.Join(m.RelatedFiles, ", "))
		}
	}

	return strings.TrimSpace(b.String()), views
}

// formatPrimer renders the session-zero primer: temporal context,
// personal primer, last session summary, latest project snapshot
// (spec.md §4.4's "If session is new and message_count == 0").
func formatPrimer(now time.Time, primer *models.PersonalPrimer, lastSummary *models.SessionSummary, latestSnapshot *models.ProjectSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Temporal context\n\nToday is %s.\n\n", now.Format("Monday, January 2, 2006"))

	if primer != nil && primer.Content != "" {
		b.WriteString("## About you\n\n")
		b.WriteString(strings.TrimSpace(primer.Content))
		b.WriteString("\n\n")
	}

	if lastSummary != nil && lastSummary.Summary != "" {
		b.WriteString("## Last session\n\n")
		b.WriteString(strings.TrimSpace(lastSummary.Summary))
		b.WriteString("\n\n")
	}

	if latestSnapshot != nil && latestSnapshot.Snapshot != "" {
		b.WriteString("## Project state\n\n")
		b.WriteString(strings.TrimSpace(latestSnapshot.Snapshot))
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String())
}
