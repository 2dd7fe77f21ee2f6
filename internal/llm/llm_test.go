package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"create a button component", 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), "EstimateTokens(%q)", tt.text)
	}
}

func TestTruncateToTokens(t *testing.T) {
	text := "line one\nline two\nline three\nline four"
	assert.Equal(t, text, TruncateToTokens(text, 100))
	assert.Equal(t, text, TruncateToTokens(text, 0))

	got := TruncateToTokens(text, 5)
	assert.LessOrEqual(t, len(got), 20)
	assert.Equal(t, "line one\nline two", got)
}

func TestGetDefaultModelID(t *testing.T) {
	assert.Equal(t, "gpt-5-mini-2025-08-07", GetDefaultModelID(ProviderOpenAI))
	assert.Equal(t, "claude-3-5-sonnet-latest", GetDefaultModelID(ProviderAnthropic))
	assert.Equal(t, "llama3.2", GetDefaultModelID(ProviderOllama))
	assert.Empty(t, GetDefaultModelID("unknown"))
}

func TestCalculateCost(t *testing.T) {
	assert.InDelta(t, 0.22+1.80, CalculateCost("gpt-5-mini", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.22+1.80, CalculateCost("gpt-5-mini-2025-08-07", 1_000_000, 1_000_000), 1e-9)
	assert.Zero(t, CalculateCost("llama3.2", 5000, 5000))
	assert.Zero(t, CalculateCost("unknown-model", 5000, 5000))
}

func TestLookup(t *testing.T) {
	spec, err := Lookup(" Anthropic ")
	require.NoError(t, err)
	assert.Equal(t, Provider(ProviderAnthropic), spec.Name)

	_, err = Lookup("bedrock")
	assert.ErrorContains(t, err, "anthropic, gemini, ollama, openai")
}

func TestProviderSpec_EnvKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", " g-key ")

	spec, err := Lookup(ProviderGemini)
	require.NoError(t, err)
	assert.True(t, spec.NeedsKey())
	assert.Equal(t, "g-key", spec.EnvKey())

	ollama, err := Lookup(ProviderOllama)
	require.NoError(t, err)
	assert.False(t, ollama.NeedsKey())
	assert.Equal(t, DefaultOllamaURL, ollama.BaseURL)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Provider: ProviderOpenAI, Model: "gpt-4o"}.Enabled())
	assert.True(t, Config{Provider: ProviderOpenAI, Model: "gpt-4o", APIKey: "sk"}.Enabled())
	assert.True(t, Config{Provider: ProviderOllama, Model: "llama3.2"}.Enabled())
	assert.False(t, Config{Provider: "bedrock", Model: "x", APIKey: "k"}.Enabled())
}

func TestNewEmbedder_Unsupported(t *testing.T) {
	_, err := NewEmbedder(context.Background(), Config{Provider: ProviderAnthropic, Model: "claude-3-5-haiku-latest", APIKey: "k"})
	assert.ErrorContains(t, err, "does not support embeddings")

	_, err = NewChatModel(context.Background(), Config{Provider: ProviderOpenAI, Model: "gpt-4o"})
	assert.ErrorContains(t, err, "API key is required")
}

type parsed struct {
	Name  string   `json:"name"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags"`
}

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  parsed
	}{
		{
			name:  "plain",
			input: `{"name":"a","score":0.5,"tags":["x"]}`,
			want:  parsed{Name: "a", Score: 0.5, Tags: []string{"x"}},
		},
		{
			name:  "fenced with prose",
			input: "```json\n{\"name\":\"b\",\"score\":1}\n```\nHope this helps!",
			want:  parsed{Name: "b", Score: 1},
		},
		{
			name:  "trailing comma",
			input: `{"name":"c","tags":["x","y",],}`,
			want:  parsed{Name: "c", Tags: []string{"x", "y"}},
		},
		{
			name:  "raw newline in string",
			input: "{\"name\":\"line1\nline2\"}",
			want:  parsed{Name: "line1\nline2"},
		},
		{
			name:  "truncated",
			input: `{"name":"d","tags":["x"`,
			want:  parsed{Name: "d", Tags: []string{"x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONResponse[parsed](tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse_NoJSON(t *testing.T) {
	_, err := ParseJSONResponse[parsed]("I cannot help with that.")
	assert.Error(t, err)
}
