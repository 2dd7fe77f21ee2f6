package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wtthornton/LocalMCP/internal/llm"
)

// LoadLLMConfig reads the llm.* keys. Anything left unset falls back to the provider's
// defaults; a missing API key is not an error because the AI passes are optional.
func LoadLLMConfig() (llm.Config, error) {
	spec, err := llm.Lookup(getStringWithDefault("llm.provider", llm.DefaultProvider))
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	return llm.Config{
		Provider:       spec.Name,
		Model:          getStringWithDefault("llm.model", llm.GetDefaultModelID(string(spec.Name))),
		EmbeddingModel: getStringWithDefault("llm.embeddingModel", spec.EmbeddingModel),
		APIKey:         ResolveAPIKey(spec.Name),
		BaseURL:        getStringWithDefault("llm.baseURL", spec.BaseURL),
		MaxTokens:      viper.GetInt("llm.maxTokens"),
	}, nil
}

// ResolveAPIKey returns the API key for provider from, in order: llm.apiKeys.<provider>,
// llm.apiKey (OpenAI only, so the key never reaches another vendor) and the provider's
// environment variables.
func ResolveAPIKey(provider llm.Provider) string {
	if key := strings.TrimSpace(viper.GetString("llm.apiKeys." + string(provider))); key != "" {
		return key
	}
	if provider == llm.ProviderOpenAI {
		if key := strings.TrimSpace(viper.GetString("llm.apiKey")); key != "" {
			return key
		}
	}
	spec, err := llm.Lookup(string(provider))
	if err != nil {
		return ""
	}
	return spec.EnvKey()
}
