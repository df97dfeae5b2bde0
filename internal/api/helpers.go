package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/RLabs-Inc/memory/internal/embedding"
	"github.com/RLabs-Inc/memory/internal/lifecycle"
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a generic error body, deriving kind from the status
// text when the caller has no more specific classification (spec.md §6's
// {error, kind} shape).
func writeError(w http.ResponseWriter, status int, message string) {
	kind := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if kind == "" {
		kind = "error"
	}
	writeJSON(w, status, models.ErrorResponse{Error: message, Kind: kind})
}

// writeAppError classifies an error returned by the store/embedding/
// lifecycle packages per spec.md §7 and writes the matching status and kind.
func writeAppError(w http.ResponseWriter, err error) {
	status, kind := classifyError(err)
	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
}

func classifyError(err error) (int, string) {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Kind {
		case store.ErrNotFound:
			return http.StatusNotFound, string(storeErr.Kind)
		case store.ErrConflict:
			return http.StatusConflict, string(storeErr.Kind)
		default:
			return http.StatusInternalServerError, string(storeErr.Kind)
		}
	}

	var embedErr *embedding.Error
	if errors.As(err, &embedErr) {
		return http.StatusServiceUnavailable, string(embedErr.Kind)
	}

	var lifecycleErr *lifecycle.Error
	if errors.As(err, &lifecycleErr) {
		return http.StatusInternalServerError, string(lifecycleErr.Kind)
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "validation"
	}

	return http.StatusInternalServerError, "internal_error"
}
