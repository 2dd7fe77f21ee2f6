package llm

import "strings"

// Model represents a model definition including pricing.
type Model struct {
	ID          string   // Canonical model ID (e.g., "gpt-5-mini")
	Provider    string   // Provider display name (e.g., "OpenAI")
	ProviderID  string   // Internal provider ID (e.g., "openai")
	Aliases     []string // Alternative IDs including dated versions
	InputPer1M  float64  // $ per 1M input tokens
	OutputPer1M float64  // $ per 1M output tokens
	IsDefault   bool     // Whether this is the default model for its provider
}

// ModelRegistry lists the models used for prompt enhancement.
// Prices last updated: 2025-12
var ModelRegistry = []Model{
	{ID: "gpt-5-mini", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-5-mini-2025-08-07"}, InputPer1M: 0.22, OutputPer1M: 1.80, IsDefault: true},
	{ID: "gpt-5-nano", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-5-nano-2025-09-25"}, InputPer1M: 0.04, OutputPer1M: 0.36},
	{ID: "gpt-4.1-mini", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4.1-mini-2025-04-14"}, InputPer1M: 0.15, OutputPer1M: 0.60},
	{ID: "gpt-4o", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4o-2024-08-06"}, InputPer1M: 2.50, OutputPer1M: 10.00},
	{ID: "gpt-4o-mini", Provider: "OpenAI", ProviderID: ProviderOpenAI, Aliases: []string{"gpt-4o-mini-2024-07-18"}, InputPer1M: 0.15, OutputPer1M: 0.60},

	{ID: "claude-3-5-sonnet-latest", Provider: "Anthropic", ProviderID: ProviderAnthropic, Aliases: []string{"claude-3-5-sonnet-20241022"}, InputPer1M: 3.00, OutputPer1M: 15.00, IsDefault: true},
	{ID: "claude-3-5-haiku-latest", Provider: "Anthropic", ProviderID: ProviderAnthropic, Aliases: []string{"claude-3-5-haiku-20241022"}, InputPer1M: 0.80, OutputPer1M: 4.00},
	{ID: "claude-haiku-4.5", Provider: "Anthropic", ProviderID: ProviderAnthropic, InputPer1M: 1.00, OutputPer1M: 5.00},

	{ID: "gemini-2.0-flash", Provider: "Google", ProviderID: ProviderGemini, InputPer1M: 0.10, OutputPer1M: 0.40, IsDefault: true},
	{ID: "gemini-2.5-flash", Provider: "Google", ProviderID: ProviderGemini, InputPer1M: 0.30, OutputPer1M: 2.50},
	{ID: "gemini-2.5-pro", Provider: "Google", ProviderID: ProviderGemini, InputPer1M: 1.25, OutputPer1M: 10.00},

	// Local models carry no pricing.
	{ID: "llama3.2", Provider: "Ollama", ProviderID: ProviderOllama, IsDefault: true},
}

var modelIndex map[string]*Model

func init() {
	modelIndex = make(map[string]*Model)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		modelIndex[m.ID] = m
		for _, alias := range m.Aliases {
			modelIndex[alias] = m
		}
	}
}

// GetModel returns the model definition for a given model ID or alias, or nil.
func GetModel(modelID string) *Model {
	return modelIndex[strings.TrimSpace(modelID)]
}

// GetDefaultModelID returns the default model ID for a provider.
func GetDefaultModelID(providerID string) string {
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		if m.ProviderID != providerID || !m.IsDefault {
			continue
		}
		// Dated version for OpenAI (API compatibility)
		if providerID == ProviderOpenAI && len(m.Aliases) > 0 {
			return m.Aliases[0]
		}
		return m.ID
	}
	return ""
}

// CalculateCost calculates cost in USD for token usage. Unknown models cost 0.
func CalculateCost(modelID string, inputTokens, outputTokens int) float64 {
	m := GetModel(modelID)
	if m == nil {
		return 0
	}
	return float64(inputTokens)/1_000_000*m.InputPer1M + float64(outputTokens)/1_000_000*m.OutputPer1M
}
