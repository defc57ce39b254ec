package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResult(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		result, err := decodeResult(`{"category":"finanzen","confidence":0.92,"customer":"1234_acme"}`)
		require.NoError(t, err)
		assert.Equal(t, "finanzen", result.Category)
		assert.Equal(t, 0.92, result.Confidence)
		assert.Equal(t, "1234_acme", result.Customer)
	})

	t.Run("json wrapped in prose and fences", func(t *testing.T) {
		raw := "Sure, here is the classification:\n```json\n{\"category\": \"projekte\", \"confidence\": 0.8, \"tags\": [\"roadmap\"]}\n```"
		result, err := decodeResult(raw)
		require.NoError(t, err)
		assert.Equal(t, "projekte", result.Category)
		assert.Equal(t, []string{"roadmap"}, result.Tags)
	})

	t.Run("category normalized", func(t *testing.T) {
		result, err := decodeResult(`{"category":" FINANZEN ","confidence":0.5}`)
		require.NoError(t, err)
		assert.Equal(t, "finanzen", result.Category)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := decodeResult(`{"category":"memes","confidence":0.9}`)
		assert.Error(t, err)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		_, err := decodeResult(`{"category":"finanzen","confidence":1.5}`)
		assert.Error(t, err)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := decodeResult("I cannot classify this document.")
		assert.Error(t, err)
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}} trailing`, `{"a":{"b":2}}`},
		{"leading prose", `result: {"a":1}`, `{"a":1}`},
		{"unclosed", `{"a":1`, ""},
		{"no object", "nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.raw))
		})
	}
}
