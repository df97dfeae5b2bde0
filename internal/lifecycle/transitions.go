// Package lifecycle governs everything that happens to a memory after
// it is born from a curator pass: relationship reconciliation, implicit
// state transitions, decay, personal primer maintenance, and the
// management log.
package lifecycle

import (
	"fmt"

	"github.com/RLabs-Inc/memory/internal/models"
)

// ErrorKind classifies a lifecycle failure.
type ErrorKind string

const (
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindIO                ErrorKind = "io"
)

// Error is the typed error LifecycleError calls for.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("lifecycle: %s: %s: %v", e.Op, e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// allowedTransitions is the state machine spec.md §4.3 defines.
// superseded and archived are terminal and have no entry here.
var allowedTransitions = map[models.Status][]models.Status{
	models.StatusActive:     {models.StatusPending, models.StatusSuperseded, models.StatusDeprecated, models.StatusArchived},
	models.StatusPending:    {models.StatusActive, models.StatusSuperseded},
	models.StatusDeprecated: {models.StatusArchived},
}

// Transition validates and applies a status change. Invalid transitions
// (including any transition out of a terminal state) are rejected.
func Transition(m *models.Memory, to models.Status) error {
	if m.Status.IsTerminal() {
		return &Error{Kind: KindInvalidTransition, Op: "transition",
			Err: fmt.Errorf("memory %s is in terminal state %s, cannot transition to %s", m.ID, m.Status, to)}
	}
	for _, allowed := range allowedTransitions[m.Status] {
		if allowed == to {
			m.Status = to
			return nil
		}
	}
	return &Error{Kind: KindInvalidTransition, Op: "transition",
		Err: fmt.Errorf("memory %s cannot transition from %s to %s", m.ID, m.Status, to)}
}
