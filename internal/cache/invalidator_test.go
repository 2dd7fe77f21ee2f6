package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func reactObservation(facts ...string) Observation {
	return Observation{
		Context:     enhance.ProjectContext{RepoFacts: facts, CodeSnippets: []enhance.CodeSnippet{}},
		ProjectType: enhance.ProjectFrontend,
		Frameworks:  []string{"react"},
		PromptTerms: []string{"button", "component"},
	}
}

func TestProjectSignature(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 15, 0, 0, time.UTC)
	pc := enhance.ProjectContext{RepoFacts: []string{"a", "b"}}

	s := ProjectSignature(pc, enhance.ProjectFrontend, at)
	assert.Equal(t, s, ProjectSignature(pc, enhance.ProjectFrontend, at.Add(30*time.Minute)), "same hour bucket")
	assert.NotEqual(t, s, ProjectSignature(pc, enhance.ProjectFrontend, at.Add(time.Hour)))
	assert.NotEqual(t, s, ProjectSignature(pc, enhance.ProjectBackend, at))
	assert.NotEqual(t, s, ProjectSignature(enhance.ProjectContext{RepoFacts: []string{"a", "c"}}, enhance.ProjectFrontend, at))
}

func TestInvalidator_ObserveLifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	inv := NewInvalidatorWithClock(clock.now)

	sig1, drifted := inv.Observe(reactObservation("Framework: react"))
	assert.False(t, drifted, "first observation establishes the baseline")
	assert.Equal(t, sig1, inv.Snapshot().Signature)

	clock.t = clock.t.Add(5 * time.Minute)
	_, drifted = inv.Observe(reactObservation("Framework: react"))
	assert.False(t, drifted)
	assert.Zero(t, inv.Snapshot().Generation)

	clock.t = clock.t.Add(time.Minute)
	sig2, drifted := inv.Observe(reactObservation("Framework: react", "Framework: tailwind"))
	assert.True(t, drifted)
	assert.NotEqual(t, sig1, sig2)

	st := inv.Snapshot()
	assert.Equal(t, 1, st.Generation)
	assert.Len(t, st.StaleMarkers, 1)
	assert.Equal(t, sig1, st.StaleMarkers[0].PreviousSignature)
	assert.Equal(t, "signature changed", st.StaleMarkers[0].Reason)

	clock.t = clock.t.Add(2 * time.Hour)
	_, drifted = inv.Observe(reactObservation("Framework: react", "Framework: tailwind"))
	assert.True(t, drifted, "hour bucket moved on")
}

func TestInvalidator_IsStale(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	inv := NewInvalidatorWithClock(clock.now)
	oldSig, _ := inv.Observe(reactObservation("Framework: react"))

	similar := &Entry{
		CreatedAt:        clock.t,
		ProjectSignature: oldSig,
		PromptTerms:      []string{"button", "component", "primary"},
	}
	unrelated := &Entry{
		CreatedAt:          clock.t,
		ProjectSignature:   oldSig,
		PromptTerms:        []string{"database", "migration"},
		FrameworkDetection: enhance.FrameworkDetectionResult{DetectedFrameworks: []string{"prisma"}},
	}
	otherSignature := &Entry{
		CreatedAt:        clock.t,
		ProjectSignature: "something-else",
		PromptTerms:      []string{"button", "component"},
	}

	assert.False(t, inv.IsStale(similar))

	clock.t = clock.t.Add(time.Minute)
	inv.Observe(reactObservation("Framework: react", "Framework: vite"))

	assert.True(t, inv.IsStale(similar))
	assert.False(t, inv.IsStale(unrelated))
	assert.False(t, inv.IsStale(otherSignature))

	fresh := &Entry{CreatedAt: clock.t.Add(time.Second), ProjectSignature: oldSig, PromptTerms: []string{"button", "component"}}
	assert.False(t, inv.IsStale(fresh), "entries newer than the marker survive")

	clock.t = clock.t.Add(time.Minute)
	inv.MarkDrift("go.mod changed")
	assert.True(t, inv.IsStale(unrelated))
	assert.True(t, inv.IsStale(fresh))
}

func TestInvalidator_EntriesFromEarlierSession(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	sig := ProjectSignature(reactObservation("Framework: react").Context, enhance.ProjectFrontend, start)
	entry := &Entry{CreatedAt: start, ProjectSignature: sig, PromptTerms: []string{"button", "component"}}

	unobserved := NewInvalidatorWithClock(func() time.Time { return start.Add(48 * time.Hour) })
	assert.False(t, unobserved.IsStale(entry), "nothing to compare against before the first observation")

	clock := &fakeClock{t: start.Add(30 * time.Minute)}
	inv := NewInvalidatorWithClock(clock.now)
	inv.Observe(reactObservation("Framework: react"))
	assert.Equal(t, clock.t, inv.Snapshot().StartedAt)
	assert.False(t, inv.IsStale(entry), "same signature in the same hour")

	clock.t = start.Add(30 * 24 * time.Hour)
	next := NewInvalidatorWithClock(clock.now)
	_, drifted := next.Observe(reactObservation("Framework: react"))
	assert.False(t, drifted)
	assert.True(t, next.IsStale(entry), "hour bucket differs from the stored signature")

	own := &Entry{CreatedAt: clock.t, ProjectSignature: "whatever"}
	assert.False(t, next.IsStale(own), "entries from this session go through markers")
}

func TestInvalidator_MarkerTrimmingNeverRevives(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	inv := NewInvalidatorWithClock(clock.now)

	old := &Entry{CreatedAt: clock.t.Add(-time.Second), ProjectSignature: "x"}
	for i := 0; i < maxMarkers+5; i++ {
		clock.t = clock.t.Add(time.Second)
		inv.MarkDrift("tick")
	}
	st := inv.Snapshot()
	assert.Len(t, st.StaleMarkers, maxMarkers)
	assert.False(t, st.StaleBefore.IsZero())
	assert.True(t, inv.IsStale(old))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 1.0, Jaccard([]string{"a", "b"}, []string{"b", "a"}))
	assert.InDelta(t, 1.0/3.0, Jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
	assert.Equal(t, 0.0, Jaccard([]string{"a"}, []string{"b"}))
}
