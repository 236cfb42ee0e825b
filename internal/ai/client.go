// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai wraps the Anthropic completion API behind a small interface the
// planner and relevance filter share. Both call sites want one thing: a
// system+user message pair answered with a single JSON object. The API is
// treated as unreliable: callers must tolerate malformed responses and
// outright failure.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Completions answers a system+user message pair with a parsed JSON object.
// Implementations must return an error rather than a partial object when the
// response cannot be parsed.
type Completions interface {
	CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error)
}

// AnthropicClient implements Completions against the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient builds a client for the configured model. The API key
// is required; model and max tokens fall back to defaults.
func NewAnthropicClient(cfg types.AIConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// CompleteJSON sends the message pair and parses the reply as one JSON
// object. The system prompt is extended with a JSON-only instruction; models
// still occasionally wrap the object in a code fence, which is stripped.
func (c *AnthropicClient) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system + "\n\nRespond with a single JSON object and nothing else."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic API returned no text content")
	}

	return ParseObject(text.String())
}

// ParseObject extracts the JSON object from a completion reply: strips code
// fences, trims surrounding prose, and validates that the remainder parses
// as an object.
func ParseObject(reply string) (json.RawMessage, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in completion reply")
	}
	s = s[start : end+1]

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, fmt.Errorf("parsing completion reply: %w", err)
	}
	return json.RawMessage(s), nil
}
