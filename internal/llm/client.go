// Package llm builds chat models and embedders for the AI passes of prompt enhancement,
// on top of CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
)

// Provider names a model vendor.
type Provider string

// Config selects a provider and model.
type Config struct {
	Provider       Provider
	Model          string
	EmbeddingModel string // empty means the provider default
	APIKey         string
	BaseURL        string // empty means the provider default
	MaxTokens      int    // completion cap; 0 means DefaultMaxOutputTokens where one is required
}

// Enabled reports whether the config carries enough to build a chat model.
func (c Config) Enabled() bool {
	spec, err := Lookup(string(c.Provider))
	if err != nil || c.Model == "" {
		return false
	}
	return !spec.NeedsKey() || c.APIKey != ""
}

func (c Config) resolve() (ProviderSpec, Config, error) {
	spec, err := Lookup(string(c.Provider))
	if err != nil {
		return spec, c, err
	}
	if spec.NeedsKey() && c.APIKey == "" {
		return spec, c, fmt.Errorf("%s API key is required", spec.Name)
	}
	if c.BaseURL == "" {
		c.BaseURL = spec.BaseURL
	}
	return spec, c, nil
}

// NewChatModel creates the chat model cfg names.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	spec, cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	m, err := spec.chat(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", spec.Name, err)
	}
	return m, nil
}

// NewEmbedder creates an embedder for cfg's provider. Anthropic has none; callers treat
// the error as "curate by keywords only".
func NewEmbedder(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	spec, cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	if spec.embed == nil {
		return nil, fmt.Errorf("provider %s does not support embeddings", spec.Name)
	}
	name := cfg.EmbeddingModel
	if name == "" {
		name = spec.EmbeddingModel
	}
	e, err := spec.embed(ctx, cfg, name)
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", spec.Name, err)
	}
	return e, nil
}
