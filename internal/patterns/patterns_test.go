package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldIgnoreDir(t *testing.T) {
	for _, name := range []string{"node_modules", "vendor", ".git", ".cache", "__pycache__"} {
		assert.True(t, ShouldIgnoreDir(name), name)
	}
	for _, name := range []string{"src", "docs", "internal", "."} {
		assert.False(t, ShouldIgnoreDir(name), name)
	}
}

func TestFileClassification(t *testing.T) {
	assert.True(t, IsCodeFile("src/App.TSX"))
	assert.False(t, IsCodeFile("logo.png"))

	assert.True(t, IsDocFile("README.md"))
	assert.True(t, IsDocFile("docs/setup.txt"))
	assert.False(t, IsDocFile("src/docs.go"))

	assert.True(t, IsScannable("guide.mdx"))
	assert.True(t, IsScannable("main.go"))
	assert.False(t, IsScannable("go.sum"))

	assert.Equal(t, "tsx", FenceLanguage("Button.tsx"))
	assert.Equal(t, "", FenceLanguage("Makefile"))
}
