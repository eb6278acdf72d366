package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain json", `{"a":"b"}`, `{"a":"b"}`},
		{"fenced", "```json\n{\"a\":\"b\"}\n```", `{"a":"b"}`},
		{"fenced without language", "```\n{\"a\":\"b\"}\n```", `{"a":"b"}`},
		{"chatter around json", "Here you go:\n{\"a\":\"b\"}\nHope it helps!", `{"a":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}

func TestBuildOraclePrompt(t *testing.T) {
	prompt, err := buildOraclePrompt([]string{"Padaria Estrela", "Posto Shell"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Alimentação")
	assert.Contains(t, prompt, "Outros")
	assert.Contains(t, prompt, `"Padaria Estrela"`)
	assert.Contains(t, prompt, `"Posto Shell"`)
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestNewGeminiOracleRequiresKey(t *testing.T) {
	_, err := NewGeminiOracle(t.Context(), "", "", 0, nil)
	assert.Error(t, err)
}
