package llm

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	geminiEmbed "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	DefaultProvider = ProviderOpenAI
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultMaxOutputTokens caps completions for providers that require an explicit limit.
const DefaultMaxOutputTokens = 4096

// ProviderSpec is what LocalMCP knows about one provider.
type ProviderSpec struct {
	Name           Provider
	KeyEnv         []string // checked in order for an API key
	BaseURL        string   // used when config sets none
	EmbeddingModel string   // empty when the provider has no embeddings

	chat  func(ctx context.Context, cfg Config) (model.BaseChatModel, error)
	embed func(ctx context.Context, cfg Config, modelName string) (embedding.Embedder, error)
}

// NeedsKey reports whether calls require an API key.
func (s ProviderSpec) NeedsKey() bool { return len(s.KeyEnv) > 0 }

// EnvKey returns the first non-empty API key from the provider's environment variables.
func (s ProviderSpec) EnvKey() string {
	for _, name := range s.KeyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

var providers = map[Provider]ProviderSpec{
	ProviderOpenAI: {
		Name:           ProviderOpenAI,
		KeyEnv:         []string{"OPENAI_API_KEY"},
		EmbeddingModel: "text-embedding-3-small",
		chat: func(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
			return openai.NewChatModel(ctx, &openai.ChatModelConfig{Model: cfg.Model, APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		},
		embed: func(ctx context.Context, cfg Config, name string) (embedding.Embedder, error) {
			return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{Model: name, APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		},
	},
	ProviderAnthropic: {
		Name:   ProviderAnthropic,
		KeyEnv: []string{"ANTHROPIC_API_KEY"},
		chat: func(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
			limit := cfg.MaxTokens
			if limit <= 0 {
				limit = DefaultMaxOutputTokens
			}
			return claude.NewChatModel(ctx, &claude.Config{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: limit})
		},
	},
	ProviderGemini: {
		Name:           ProviderGemini,
		KeyEnv:         []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		EmbeddingModel: "text-embedding-004",
		chat: func(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
			client, err := newGenAIClient(ctx, cfg.APIKey)
			if err != nil {
				return nil, err
			}
			return gemini.NewChatModel(ctx, &gemini.Config{Client: client, Model: cfg.Model})
		},
		embed: func(ctx context.Context, cfg Config, name string) (embedding.Embedder, error) {
			client, err := newGenAIClient(ctx, cfg.APIKey)
			if err != nil {
				return nil, err
			}
			return geminiEmbed.NewEmbedder(ctx, &geminiEmbed.EmbeddingConfig{Client: client, Model: name})
		},
	},
	ProviderOllama: {
		Name:           ProviderOllama,
		BaseURL:        DefaultOllamaURL,
		EmbeddingModel: "nomic-embed-text",
		chat: func(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
			return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{BaseURL: cfg.BaseURL, Model: cfg.Model})
		},
		embed: func(ctx context.Context, cfg Config, name string) (embedding.Embedder, error) {
			return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{BaseURL: cfg.BaseURL, Model: name})
		},
	},
}

// Lookup returns the spec of a provider name, case-insensitively.
func Lookup(name string) (ProviderSpec, error) {
	spec, ok := providers[Provider(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return ProviderSpec{}, fmt.Errorf("unsupported provider %q (supported: %s)", name, strings.Join(ProviderNames(), ", "))
	}
	return spec, nil
}

// ProviderNames lists supported providers, sorted.
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for p := range providers {
		names = append(names, string(p))
	}
	slices.Sort(names)
	return names
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}
