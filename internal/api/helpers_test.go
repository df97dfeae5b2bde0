package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RLabs-Inc/memory/internal/embedding"
	"github.com/RLabs-Inc/memory/internal/lifecycle"
	"github.com/RLabs-Inc/memory/internal/models"
	"github.com/RLabs-Inc/memory/internal/store"
)

func TestClassifyError_StoreNotFound(t *testing.T) {
	err := &store.StoreError{Kind: store.ErrNotFound, Op: "get", Err: assertErr("missing")}
	status, kind := classifyError(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", kind)
}

func TestClassifyError_EmbeddingError(t *testing.T) {
	err := &embedding.Error{Kind: embedding.KindInference, Err: assertErr("timeout")}
	status, kind := classifyError(err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "inference", kind)
}

func TestClassifyError_LifecycleError(t *testing.T) {
	err := &lifecycle.Error{Kind: lifecycle.KindInvalidTransition, Op: "transition", Err: assertErr("bad")}
	status, kind := classifyError(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "invalid_transition", kind)
}

func TestClassifyError_ValidationError(t *testing.T) {
	err := &models.ValidationError{Field: "scope", Message: "unknown"}
	status, kind := classifyError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", kind)
}

func TestClassifyError_Unknown(t *testing.T) {
	status, kind := classifyError(assertErr("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", kind)
}

func TestWriteError_DerivesKindFromStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusUnauthorized, "nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	h := NewHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func assertErr(msg string) error { return simpleError(msg) }
