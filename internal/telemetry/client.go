// Package telemetry sends anonymous, opt-in usage events to PostHog. Prompts, paths
// and other user content never leave the machine.
package telemetry

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client tracks usage events. Track never blocks; Close flushes.
type Client interface {
	Track(event string, properties map[string]any)
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// Settings configures New.
type Settings struct {
	APIKey   string
	Version  string
	Consent  *Config
	Endpoint string // self-hosted PostHog; empty means PostHog cloud
}

// sink is the part of the PostHog client events go through.
type sink interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// New returns a PostHog-backed client, or a no-op one when there is no API key or the
// user has not opted in.
func New(s Settings) (Client, error) {
	if s.APIKey == "" || !s.Consent.IsEnabled() {
		return NewNoopClient(), nil
	}
	ph, err := posthog.NewWithConfig(s.APIKey, posthog.Config{
		Endpoint:  s.Endpoint,
		BatchSize: 20,
		Interval:  5 * time.Second,
		// stdout carries MCP traffic; the SDK must not write anywhere.
		Logger: silentLogger{},
	})
	if err != nil {
		return nil, fmt.Errorf("create posthog client: %w", err)
	}
	return newTracker(ph, s.Consent, s.Version), nil
}

// tracker enqueues sanitized capture events for one anonymous install.
type tracker struct {
	sink     sink
	install  string
	base     map[string]any
	mu       sync.RWMutex
	closed   bool
	closeErr error
	once     sync.Once
}

func newTracker(s sink, consent *Config, version string) *tracker {
	return &tracker{
		sink:    s,
		install: consent.AnonymousID,
		base: map[string]any{
			"os":               runtime.GOOS,
			"arch":             runtime.GOARCH,
			"localmcp_version": version,
			// anonymous events: no person profiles
			"$process_person_profile": false,
		},
	}
}

func (t *tracker) Track(event string, properties map[string]any) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	props := posthog.NewProperties()
	for k, v := range sanitize(properties) {
		props.Set(k, v)
	}
	for k, v := range t.base {
		props.Set(k, v)
	}
	_ = t.sink.Enqueue(posthog.Capture{DistinctId: t.install, Event: event, Properties: props})
}

// Close flushes queued events once. Later Track calls are dropped.
func (t *tracker) Close() error {
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		t.closeErr = t.sink.Close()
	})
	return t.closeErr
}

// NoopClient drops every event.
type NoopClient struct{}

func (NoopClient) Track(string, map[string]any) {}

func (NoopClient) Close() error { return nil }

// NewNoopClient returns a client that does nothing.
func NewNoopClient() NoopClient { return NoopClient{} }

type silentLogger struct{}

func (silentLogger) Debugf(string, ...any) {}
func (silentLogger) Logf(string, ...any)   {}
func (silentLogger) Warnf(string, ...any)  {}
func (silentLogger) Errorf(string, ...any) {}
