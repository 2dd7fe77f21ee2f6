package cache

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

// ErrNotFound is returned by Store.Get for an unknown key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is a cached enhancement.
type Entry struct {
	Key                string                           `json:"key"`
	Fingerprint        string                           `json:"fingerprint"`
	EnhancedPrompt     string                           `json:"enhanced_prompt"`
	ContextSnapshot    enhance.ContextUsed              `json:"context_snapshot"`
	FrameworkDetection enhance.FrameworkDetectionResult `json:"framework_detection"`
	QualityScore       float64                          `json:"quality_score"`
	Hits               int                              `json:"hits"`
	CreatedAt          time.Time                        `json:"created_at"`
	ProjectSignature   string                           `json:"project_signature"`
	PromptTerms        []string                         `json:"prompt_terms"`
}

func (e *Entry) clone() *Entry {
	c := *e
	c.ContextSnapshot = enhance.ContextUsed{
		RepoFacts:     slices.Clone(e.ContextSnapshot.RepoFacts),
		CodeSnippets:  slices.Clone(e.ContextSnapshot.CodeSnippets),
		FrameworkDocs: slices.Clone(e.ContextSnapshot.FrameworkDocs),
		ProjectDocs:   slices.Clone(e.ContextSnapshot.ProjectDocs),
	}
	c.FrameworkDetection.DetectedFrameworks = slices.Clone(e.FrameworkDetection.DetectedFrameworks)
	c.PromptTerms = slices.Clone(e.PromptTerms)
	return &c
}

// Store persists entries by exact key. Touch records a served hit; Get alone does not,
// since the cache may still reject what it read. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Touch(ctx context.Context, key string) error
}

// StoreStats summarizes a store's contents.
type StoreStats struct {
	Entries   int       `json:"entries"`
	TotalHits int       `json:"total_hits"`
	Oldest    time.Time `json:"oldest,omitempty"`
	Newest    time.Time `json:"newest,omitempty"`
}

// Admin is implemented by stores that support maintenance.
type Admin interface {
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (StoreStats, error)
	Clear(ctx context.Context) error
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}
