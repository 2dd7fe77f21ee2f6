package cache

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

const (
	hourBucketLayout = "2006-01-02T15"

	// driftInterval forces a drift check even when the signature is unchanged.
	driftInterval = time.Hour

	// similarityThreshold is the prompt-term Jaccard overlap that ties an entry to a marker.
	similarityThreshold = 0.5

	maxMarkers = 128
)

// StaleMarker records a drift. Entries created before it that match it are stale.
type StaleMarker struct {
	Before            time.Time `json:"before"`
	Reason            string    `json:"reason"`
	PreviousSignature string    `json:"previous_signature,omitempty"`
	Frameworks        []string  `json:"frameworks,omitempty"`
	PromptTerms       []string  `json:"prompt_terms,omitempty"`
	All               bool      `json:"all,omitempty"` // matches every older entry
}

// SessionState is the invalidator's view of the project.
type SessionState struct {
	// StartedAt is the first observation. Entries created earlier come from another
	// process and are judged by their own signature.
	StartedAt    time.Time     `json:"started_at,omitempty"`
	Signature    string        `json:"signature"`
	ObservedAt   time.Time     `json:"observed_at"`
	Generation   int           `json:"generation"`
	StaleMarkers []StaleMarker `json:"stale_markers"`
	// StaleBefore makes every entry created earlier stale. It advances when old markers
	// are discarded, so trimming never revives an entry.
	StaleBefore time.Time `json:"stale_before,omitempty"`
}

// Observation is what one request tells the invalidator about the project.
type Observation struct {
	Context     enhance.ProjectContext
	ProjectType enhance.ProjectType
	Frameworks  []string
	PromptTerms []string
}

// Invalidator detects project drift between requests and decides which entries it made stale.
type Invalidator struct {
	mu    sync.RWMutex
	state SessionState
	now   func() time.Time
}

// NewInvalidator creates an invalidator with an empty session.
func NewInvalidator() *Invalidator {
	return NewInvalidatorWithClock(time.Now)
}

// NewInvalidatorWithClock creates an invalidator that reads time from now.
func NewInvalidatorWithClock(now func() time.Time) *Invalidator {
	return &Invalidator{now: now}
}

// Snapshot returns a copy of the current session state.
func (i *Invalidator) Snapshot() SessionState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s := i.state
	s.StaleMarkers = slices.Clone(i.state.StaleMarkers)
	return s
}

// ProjectSignature hashes the first facts and snippet files, the project type and the
// hour bucket of at.
func ProjectSignature(pc enhance.ProjectContext, pt enhance.ProjectType, at time.Time) string {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	for i, f := range pc.RepoFacts {
		if i == signatureFacts {
			break
		}
		write(f)
	}
	write("|")
	for i, s := range pc.CodeSnippets {
		if i == signatureSnippets {
			break
		}
		write(s.File)
	}
	write(string(pt))
	write(at.UTC().Format(hourBucketLayout))
	return strconv.FormatUint(d.Sum64(), 16)
}

// Observe computes the current signature and compares it with the last one. On a change,
// or when more than an hour passed since the last observation, it starts a new generation
// and records a marker scoped to this request's frameworks and prompt terms.
func (i *Invalidator) Observe(obs Observation) (signature string, drifted bool) {
	now := i.now()
	signature = ProjectSignature(obs.Context, obs.ProjectType, now)

	i.mu.Lock()
	defer i.mu.Unlock()

	prev := i.state
	i.state.Signature = signature
	i.state.ObservedAt = now
	if prev.Signature == "" {
		i.state.StartedAt = now
		return signature, false
	}

	reason := ""
	switch {
	case prev.Signature != signature:
		reason = "signature changed"
	case now.Sub(prev.ObservedAt) > driftInterval:
		reason = "drift interval elapsed"
	default:
		return signature, false
	}

	i.addMarkerLocked(StaleMarker{
		Before:            now,
		Reason:            reason,
		PreviousSignature: prev.Signature,
		Frameworks:        slices.Clone(obs.Frameworks),
		PromptTerms:       slices.Clone(obs.PromptTerms),
	})
	slog.Debug("project drift detected", "reason", reason, "generation", i.state.Generation)
	return signature, true
}

// MarkDrift forces every entry created before now to be stale, e.g. after a manifest changed.
func (i *Invalidator) MarkDrift(reason string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.addMarkerLocked(StaleMarker{Before: i.now(), Reason: reason, All: true})
	slog.Info("cache invalidated", "reason", reason, "generation", i.state.Generation)
}

func (i *Invalidator) addMarkerLocked(m StaleMarker) {
	i.state.Generation++
	i.state.StaleMarkers = append(i.state.StaleMarkers, m)
	if over := len(i.state.StaleMarkers) - maxMarkers; over > 0 {
		last := i.state.StaleMarkers[over-1]
		if last.Before.After(i.state.StaleBefore) {
			i.state.StaleBefore = last.Before
		}
		i.state.StaleMarkers = slices.Clone(i.state.StaleMarkers[over:])
	}
}

// IsStale reports whether a drift recorded after e was created invalidates it.
// A marker from Observe covers entries computed under the signature it replaced that
// share a framework with it or whose prompt terms overlap it by at least half.
// An entry older than the session is stale unless it carries the current signature.
func (i *Invalidator) IsStale(e *Entry) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if e.CreatedAt.Before(i.state.StaleBefore) {
		return true
	}
	if !i.state.StartedAt.IsZero() && e.CreatedAt.Before(i.state.StartedAt) &&
		e.ProjectSignature != i.state.Signature {
		return true
	}
	for _, m := range i.state.StaleMarkers {
		if !e.CreatedAt.Before(m.Before) {
			continue
		}
		if m.All {
			return true
		}
		if m.PreviousSignature != "" && e.ProjectSignature != m.PreviousSignature {
			continue
		}
		if sharesAny(e.FrameworkDetection.DetectedFrameworks, m.Frameworks) ||
			Jaccard(e.PromptTerms, m.PromptTerms) >= similarityThreshold {
			return true
		}
	}
	return false
}

func sharesAny(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// Jaccard is |a∩b| / |a∪b| over distinct elements; two empty sets score 0.
func Jaccard(a, b []string) float64 {
	set := make(map[string]uint8, len(a)+len(b))
	for _, x := range a {
		set[x] |= 1
	}
	for _, x := range b {
		set[x] |= 2
	}
	if len(set) == 0 {
		return 0
	}
	both := 0
	for _, v := range set {
		if v == 3 {
			both++
		}
	}
	return float64(both) / float64(len(set))
}
