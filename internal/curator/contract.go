// Package curator defines the external agent contracts spec.md §1 and §6
// name as opaque dependencies — "the curator LLM agent: specified only by
// its output schema" — plus one concrete Curator backed by Claude.
package curator

import (
	"context"

	"github.com/RLabs-Inc/memory/internal/models"
)

// Curator turns a (privacy-scrubbed) session transcript into structured
// memories, a session summary, and an optional project snapshot. The
// Engine calls it from trigger_curation; its output is never trusted
// blind — every returned memory is re-defaulted and re-validated.
type Curator interface {
	Curate(ctx context.Context, req models.CurationRequest) (*models.CurationResult, error)
}

// Manager is the sandboxed management LLM agent's contract. spec.md §1
// scopes its implementation out ("the management LLM agent — specified
// only by its contract and sandbox requirements"); no concrete Manager
// ships in this module (see DESIGN.md). The interface is kept so a future
// sandboxed implementation has a slot to fill without touching the Engine.
type Manager interface {
	Manage(ctx context.Context, brief models.ManagementBrief) (*models.ManagementReport, error)
}
