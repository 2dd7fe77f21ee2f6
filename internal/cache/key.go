// Package cache implements the context-aware cache for enhanced prompts: deterministic
// key derivation, the content-addressed cache over a pluggable Store, and drift-based
// invalidation.
package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

const (
	signatureFacts    = 5
	signatureSnippets = 3
)

// KeyInput is everything a cache key depends on.
type KeyInput struct {
	Prompt      string
	Context     enhance.ProjectContext
	Detection   enhance.FrameworkDetectionResult
	Hints       enhance.Hints
	ProjectType enhance.ProjectType
	Complexity  enhance.ComplexityLevel
	Quality     []enhance.QualityRequirement
	AIEnhanced  bool // AI output and assembled output never share an entry
	MaxTokens   int
}

// Key identifies a cache entry. Fingerprint is a wide hash over the same inputs and is
// compared on read, so two inputs that share a 32-bit Key never serve each other's entry.
type Key struct {
	Key         string
	Fingerprint string
}

type signatureSnippet struct {
	File        string `json:"file"`
	Description string `json:"description"`
}

type signatureFramework struct {
	Name       string `json:"name"`
	Confidence string `json:"confidence"`
}

// contextSignature is serialized with encoding/json; field order is fixed by the struct.
type contextSignature struct {
	RepoFacts       []string                     `json:"repo_facts"`
	CodeSnippets    []signatureSnippet           `json:"code_snippets"`
	ProjectType     enhance.ProjectType          `json:"project_type"`
	Frameworks      []signatureFramework         `json:"frameworks"`
	DetectionMethod enhance.DetectionMethod      `json:"detection_method"`
	Hints           enhance.Hints                `json:"hints"`
	PromptLength    int                          `json:"prompt_length"`
	Complexity      enhance.ComplexityLevel      `json:"complexity"`
	Quality         []enhance.QualityRequirement `json:"quality"`
	AIEnhanced      bool                         `json:"ai_enhanced"`
	MaxTokens       int                          `json:"max_tokens"`
}

// GenerateKey derives `enhance_<promptHash>_<contextHash>` from the normalized prompt and
// the context signature. Both hashes are 32-bit polynomial rolling hashes in base 36.
func GenerateKey(in KeyInput) Key {
	normalized := NormalizePrompt(in.Prompt)
	sig := buildSignature(in, normalized)

	// Marshalling plain structs of strings and numbers cannot fail.
	raw, _ := json.Marshal(sig)

	key := fmt.Sprintf("enhance_%s_%s",
		strconv.FormatUint(uint64(RollingHash(normalized)), 36),
		strconv.FormatUint(uint64(RollingHash(string(raw))), 36))

	d := xxhash.New()
	_, _ = d.WriteString(normalized)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(raw)
	return Key{Key: key, Fingerprint: strconv.FormatUint(d.Sum64(), 16)}
}

func buildSignature(in KeyInput, normalized string) contextSignature {
	facts := in.Context.RepoFacts
	if len(facts) > signatureFacts {
		facts = facts[:signatureFacts]
	}
	snippets := in.Context.CodeSnippets
	if len(snippets) > signatureSnippets {
		snippets = snippets[:signatureSnippets]
	}

	sig := contextSignature{
		RepoFacts:       append([]string{}, facts...),
		CodeSnippets:    make([]signatureSnippet, 0, len(snippets)),
		ProjectType:     in.ProjectType,
		Frameworks:      make([]signatureFramework, 0, len(in.Detection.DetectedFrameworks)),
		DetectionMethod: in.Detection.DetectionMethod,
		Hints:           in.Hints,
		PromptLength:    len(normalized),
		Complexity:      in.Complexity,
		Quality:         append([]enhance.QualityRequirement{}, in.Quality...),
		AIEnhanced:      in.AIEnhanced,
		MaxTokens:       in.MaxTokens,
	}
	for _, s := range snippets {
		sig.CodeSnippets = append(sig.CodeSnippets, signatureSnippet{File: s.File, Description: s.Description})
	}
	conf := strconv.FormatFloat(in.Detection.Confidence, 'f', 2, 64)
	for _, f := range in.Detection.DetectedFrameworks {
		sig.Frameworks = append(sig.Frameworks, signatureFramework{Name: f, Confidence: conf})
	}
	return sig
}

// NormalizePrompt lowercases, strips punctuation and collapses whitespace.
func NormalizePrompt(prompt string) string {
	var sb strings.Builder
	sb.Grow(len(prompt))
	space := false
	for _, r := range strings.ToLower(prompt) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return sb.String()
}

// RollingHash is the 32-bit polynomial hash h = h*31 + c over the runes of s.
// It is not collision resistant.
func RollingHash(s string) uint32 {
	var h uint32
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	return h
}
