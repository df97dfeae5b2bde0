// Package embedding wraps the fixed 384-dimension text embedding model
// spec.md §1 treats as an opaque dependency.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Dimensions is the fixed embedding width the core requires.
const Dimensions = 384

// OllamaClient generates text embeddings via the Ollama API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates a 384-dim embedding vector for the given text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{Model: c.model, Input: text}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindInference, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindInference, Err: fmt.Errorf("read embed response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindInference, Err: fmt.Errorf("ollama embed: status %d: %s", resp.StatusCode, string(body))}
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Kind: KindInference, Err: fmt.Errorf("decode embed response: %w", err)}
	}
	if len(result.Embeddings) == 0 {
		return nil, &Error{Kind: KindInference, Err: fmt.Errorf("ollama returned no embeddings")}
	}

	vec := result.Embeddings[0]
	if len(vec) != Dimensions {
		return nil, &Error{Kind: KindInference, Err: fmt.Errorf("embedding has %d dimensions, want %d", len(vec), Dimensions)}
	}
	return vec, nil
}

// HealthCheck verifies Ollama is reachable.
func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return &Error{Kind: KindInit, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindInit, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindInit, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

// ErrorKind classifies an Error per spec.md §7.
type ErrorKind string

const (
	KindInit      ErrorKind = "init"
	KindInference ErrorKind = "inference"
)

// Error is the typed error EmbedderError calls for. Degraded mode: on an
// Error, the Retrieval Engine proceeds without the vector signal.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("embedding: %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
