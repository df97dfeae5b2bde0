package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/RLabs-Inc/memory/internal/models"
)

const (
	curationMaxTokens = 4096
	curationSystemPrompt = `You are a memory curator for an AI coding assistant. Given a conversation transcript, extract durable memories worth keeping across sessions.

Respond with ONLY a JSON object of this exact shape, no prose before or after:
{
  "memories": [
    {
      "headline": "one or two line summary, always shown",
      "content": "structured body, expandable",
      "reasoning": "why this is worth keeping",
      "importance_weight": 0.0,
      "confidence_score": 0.0,
      "context_type": "technical|debug|architecture|decision|personal|philosophy|workflow|milestone|breakthrough|unresolved|state",
      "scope": "global|project",
      "trigger_phrases": [],
      "semantic_tags": [],
      "domain": "",
      "feature": "",
      "action_required": false,
      "problem_solution_pair": false,
      "awaiting_implementation": false,
      "awaiting_decision": false,
      "supersedes": null,
      "resolves": [],
      "related_to": []
    }
  ],
  "session_summary": "what happened this session",
  "snapshot": "current state of the project, optional"
}

Omit fields you have no opinion on rather than guessing. If nothing is worth remembering, return an empty memories array.`
)

// AnthropicCurator implements Curator by dispatching the transcript to
// Claude and parsing its JSON response into a CurationResult.
type AnthropicCurator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicCurator builds a Curator backed by ANTHROPIC_API_KEY, the
// fallback curator spec.md §6 names.
func NewAnthropicCurator(apiKey, model string) *AnthropicCurator {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicCurator{client: &c, model: model}
}

func (c *AnthropicCurator) Curate(ctx context.Context, req models.CurationRequest) (*models.CurationResult, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: curationMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: curationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Transcript)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("curator: messages.new: %w", err)
	}

	var raw string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			raw = strings.TrimSpace(resp.Content[i].Text)
			break
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("curator: empty response")
	}

	raw = stripCodeFence(raw)

	var result models.CurationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("curator: decode response: %w", err)
	}

	for i := range result.Memories {
		result.Memories[i].ProjectID = req.ProjectID
		result.Memories[i].SessionID = req.SessionID
	}

	return &result, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one
// despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
