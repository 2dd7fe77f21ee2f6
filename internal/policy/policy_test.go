package policy

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtthornton/LocalMCP/internal/enhance"
)

const customPolicy = `package localmcp.quality

requirements contains {"type": "observability", "priority": "medium"} if {
	contains(lower(input.prompt), "endpoint")
}

requirements contains {"type": "", "priority": "high"} if { true }

requirements contains {"type": "docs", "priority": "urgent"} if { "docs" in input.focus }
`

const customPolicyTest = `package localmcp.custom_test

import data.localmcp.quality

test_endpoint_is_observable if {
	{"type": "observability", "priority": "medium"} in quality.requirements with input as {"prompt": "new endpoint", "frameworks": [], "repo_facts": [], "project_type": "unknown", "focus": []}
}

test_deliberately_failing if {
	count(quality.requirements) == 99 with input as {"prompt": "", "frameworks": [], "repo_facts": [], "project_type": "unknown", "focus": []}
}
`

func policyFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	dir := GetPoliciesPath("/proj")
	require.NoError(t, afero.WriteFile(fs, dir+"/custom.rego", []byte(customPolicy), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/custom_test.rego", []byte(customPolicyTest), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/broken.rego", []byte("package localmcp.quality\nrequirements contains"), 0o644))
	require.NoError(t, afero.WriteFile(fs, dir+"/notes.txt", []byte("ignored"), 0o644))
	return fs
}

func TestEngine_Defaults(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, EngineConfig{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, e.PolicyNames())

	got, err := e.Evaluate(ctx, enhance.QualityInput{
		Prompt:      "Add a signup form to the landing page",
		Frameworks:  []string{"react"},
		ProjectType: enhance.ProjectFrontend,
	})
	require.NoError(t, err)
	assert.Equal(t, []enhance.QualityRequirement{
		{Type: "accessibility", Priority: enhance.PriorityHigh},
		{Type: "responsive", Priority: enhance.PriorityMedium},
	}, got)

	got, err = e.Evaluate(ctx, enhance.QualityInput{Prompt: "write a haiku"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_ProjectPolicies(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, EngineConfig{Fs: policyFS(t), PoliciesDir: GetPoliciesPath("/proj")})
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "custom"}, e.PolicyNames(), "broken and test files are left out")

	got, err := e.Evaluate(ctx, enhance.QualityInput{
		Prompt:      "Add a webhook endpoint",
		ProjectType: enhance.ProjectBackend,
		Focus:       []string{"docs"},
	})
	require.NoError(t, err)
	assert.Equal(t, []enhance.QualityRequirement{
		{Type: "docs", Priority: enhance.PriorityLow},
		{Type: "error-handling", Priority: enhance.PriorityMedium},
		{Type: "observability", Priority: enhance.PriorityMedium},
	}, got)
}

func TestEngine_SkipDefault(t *testing.T) {
	e, err := NewEngine(context.Background(), EngineConfig{Fs: afero.NewMemMapFs(), SkipDefault: true})
	require.NoError(t, err)
	got, err := e.Evaluate(context.Background(), enhance.QualityInput{Prompt: "Add a form", Frameworks: []string{"react"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQualityDetectorUsesEngine(t *testing.T) {
	e, err := NewEngine(context.Background(), EngineConfig{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	reqs := enhance.NewQualityDetector(e).Detect(context.Background(), "Handle avatar upload",
		enhance.EmptyProjectContext(), nil, enhance.ProjectBackend, nil)
	assert.Contains(t, reqs, enhance.QualityRequirement{Type: "security", Priority: enhance.PriorityHigh})
}

func TestValidatePolicy(t *testing.T) {
	assert.NoError(t, ValidatePolicy(customPolicy))
	assert.Error(t, ValidatePolicy("package x\nallow if {"))
}

func TestLoader(t *testing.T) {
	files, err := NewLoader(policyFS(t), GetPoliciesPath("/proj")).LoadAll()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "broken", files[0].Name)
	assert.True(t, files[2].IsTest())

	none, err := NewLoader(afero.NewMemMapFs(), "/missing").LoadAll()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTestRunner(t *testing.T) {
	t.Run("built-in tests pass", func(t *testing.T) {
		summary, err := NewTestRunner(afero.NewMemMapFs(), "").Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, summary.Total)
		assert.True(t, summary.AllPassed(), summary.FormatSummary())
	})

	t.Run("project tests run alongside", func(t *testing.T) {
		fs := policyFS(t)
		require.NoError(t, fs.Remove(GetPoliciesPath("/proj")+"/broken.rego"))
		summary, err := NewTestRunner(fs, GetPoliciesPath("/proj")).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, summary.Total)
		assert.Equal(t, 1, summary.Failed)
		assert.False(t, summary.AllPassed())
		assert.Contains(t, summary.FormatSummary(), "7 tests, 6 passed, 1 failed")
	})

	t.Run("syntax errors fail the run", func(t *testing.T) {
		_, err := NewTestRunner(policyFS(t), GetPoliciesPath("/proj")).Run(context.Background())
		assert.Error(t, err)
	})

	assert.Equal(t, "No tests found.", (&TestSummary{}).FormatSummary())
}
