package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"fenced no language", "```\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"leading prose", `Here is the result: {"a": 1}`, `{"a": 1}`, false},
		{"trailing prose", `{"a": 1} — let me know if you need more`, `{"a": 1}`, false},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, false},
		{"no object", "sorry, I cannot help with that", "", true},
		{"malformed", `{"a": unquoted}`, "", true},
		{"array not object", `[1, 2, 3]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseObject(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(types.AIConfig{})
	assert.Error(t, err)
}

func TestNewAnthropicClientDefaults(t *testing.T) {
	c, err := NewAnthropicClient(types.AIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.model)
	assert.Equal(t, 4096, c.maxTokens)
}
