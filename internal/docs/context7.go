// Package docs supplies framework documentation to the pipeline: a Context7 client over
// MCP, a local directory of markdown files, and a curator that trims fetched docs down to
// the parts relevant to a prompt.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Context7 tool names and argument keys.
const (
	toolResolveLibrary = "resolve-library-id"
	toolLibraryDocs    = "get-library-docs"

	defaultContext7Timeout = 20 * time.Second
)

// ErrNoLibrary is returned by Resolve when the source knows no library by that name.
var ErrNoLibrary = errors.New("library not found")

// libraryIDPattern matches Context7-compatible IDs such as /facebook/react or /vercel/next.js/v14.
var libraryIDPattern = regexp.MustCompile(`(?i)library id:\s*(/[\w.\-]+/[\w.\-]+(?:/[\w.\-]+)?)`)

// Context7Config describes how to reach a Context7 MCP server.
type Context7Config struct {
	Command string   // e.g. "npx"
	Args    []string // e.g. ["-y", "@upstash/context7-mcp"]
	Env     []string // extra KEY=VALUE pairs, such as CONTEXT7_API_KEY
	Timeout time.Duration
}

// Context7Source implements enhance.DocumentationSource by calling a Context7 MCP server.
// The connection is opened on first use and reused; resolved IDs are remembered for the
// life of the source.
type Context7Source struct {
	transport func() mcpsdk.Transport
	timeout   time.Duration

	mu       sync.Mutex
	client   *mcpsdk.Client
	session  *mcpsdk.ClientSession
	resolved map[string][]string
}

// NewContext7Source starts the server described by cfg as a subprocess on first use.
func NewContext7Source(cfg Context7Config, version string) *Context7Source {
	return NewContext7SourceWithTransport(func() mcpsdk.Transport {
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Env = append(os.Environ(), cfg.Env...)
		return mcpsdk.NewCommandTransport(cmd)
	}, cfg.Timeout, version)
}

// NewContext7SourceWithTransport uses newTransport for each connection attempt.
func NewContext7SourceWithTransport(newTransport func() mcpsdk.Transport, timeout time.Duration, version string) *Context7Source {
	if timeout <= 0 {
		timeout = defaultContext7Timeout
	}
	return &Context7Source{
		transport: newTransport,
		timeout:   timeout,
		client:    mcpsdk.NewClient(&mcpsdk.Implementation{Name: "localmcp-docs", Version: version}, nil),
		resolved:  map[string][]string{},
	}
}

// Resolve maps a library name to Context7 library IDs, best match first.
func (s *Context7Source) Resolve(ctx context.Context, name string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	s.mu.Lock()
	ids, ok := s.resolved[key]
	s.mu.Unlock()
	if ok {
		return ids, nil
	}

	text, err := s.call(ctx, toolResolveLibrary, map[string]any{"libraryName": name})
	if err != nil {
		return nil, err
	}
	ids = ParseLibraryIDs(text)
	if len(ids) == 0 {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrNoLibrary)
	}

	s.mu.Lock()
	s.resolved[key] = ids
	s.mu.Unlock()
	return ids, nil
}

// Fetch retrieves documentation for a library ID, focused on topic.
func (s *Context7Source) Fetch(ctx context.Context, libraryID, topic string, tokenBudget int) (string, error) {
	args := map[string]any{"context7CompatibleLibraryID": libraryID}
	if topic != "" {
		args["topic"] = topic
	}
	if tokenBudget > 0 {
		args["tokens"] = tokenBudget
	}
	return s.call(ctx, toolLibraryDocs, args)
}

// Close ends the MCP session, stopping the server subprocess.
func (s *Context7Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

func (s *Context7Source) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.connect(ctx)
	if err != nil {
		return "", err
	}

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		// A broken session is dropped so the next call reconnects.
		s.mu.Lock()
		if s.session == session {
			_ = s.session.Close()
			s.session = nil
		}
		s.mu.Unlock()
		return "", fmt.Errorf("context7 %s: %w", tool, err)
	}

	text := resultText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("context7 %s: %s", tool, text)
	}
	return text, nil
}

func (s *Context7Source) connect(ctx context.Context) (*mcpsdk.ClientSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	session, err := s.client.Connect(ctx, s.transport())
	if err != nil {
		return nil, fmt.Errorf("connect to context7: %w", err)
	}
	slog.Debug("context7 session established")
	s.session = session
	return session, nil
}

func resultText(content []mcpsdk.Content) string {
	var parts []string
	for _, c := range content {
		if t, ok := c.(*mcpsdk.TextContent); ok && t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ParseLibraryIDs extracts library IDs from a resolve-library-id response, in order.
func ParseLibraryIDs(text string) []string {
	var ids []string
	seen := map[string]bool{}
	for _, m := range libraryIDPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
