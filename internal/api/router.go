package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RLabs-Inc/memory/internal/engine"
)

// contextDeadline, processDeadline, and checkpointDeadline are spec.md §5's
// soft request deadlines: 10s default for /context and /process,
// 120s for /checkpoint (trigger_curation runs in the background, so its
// deadline only bounds the request's own ack, not the curator call itself).
const (
	contextDeadline    = 10 * time.Second
	processDeadline    = 10 * time.Second
	checkpointDeadline = 120 * time.Second
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(eng *engine.Engine, apiKey string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandler(eng)

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.With(Deadline(contextDeadline)).Post("/memory/context", h.Context)
		r.With(Deadline(processDeadline)).Post("/memory/process", h.Process)
		r.With(Deadline(checkpointDeadline)).Post("/memory/checkpoint", h.Checkpoint)
		r.Get("/memory/stats", h.Stats)
	})

	return r
}
