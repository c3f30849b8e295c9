package markdown_test

import (
	"strings"
	"testing"

	"github.com/md4h/prosedown/pkg/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	var tests = []struct {
		name     string // name
		input    string // input
		expected []string
	}{
		{
			name:     "Heading with generated id",
			input:    "# Getting Started\n",
			expected: []string{`<h1 id="getting-started">Getting Started</h1>`},
		},
		{
			name:     "Emphasis and links",
			input:    "Read the *[manual](docs/manual.md)* first.\n",
			expected: []string{`<em><a href="docs/manual.md">manual</a></em>`},
		},
		{
			name:     "Image",
			input:    "![A diagram](medias/diagram.png)\n",
			expected: []string{`<img src="medias/diagram.png" alt="A diagram"`},
		},
		{
			name:     "Table",
			input:    "| A | B |\n|---|---|\n| 1 | 2 |\n",
			expected: []string{"<table>", "<th>A</th>"},
		},
		{
			name:     "Highlighted code block",
			input:    "```go\npackage main\n```\n",
			expected: []string{"highlight-chroma", "package"},
		},
		{
			name:     "Code block without language",
			input:    "```\njust text\n```\n",
			expected: []string{"highlight-chroma", "just text"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := markdown.ToHTML(tt.input)
			for _, fragment := range tt.expected {
				assert.Contains(t, actual, fragment)
			}
		})
	}
}

func TestHighlightCSS(t *testing.T) {
	css := markdown.HighlightCSS(markdown.DefaultStyle)
	require.NotEmpty(t, css)
	assert.Contains(t, css, ".highlight-chroma")

	t.Run("Unknown style falls back", func(t *testing.T) {
		assert.NotEmpty(t, markdown.HighlightCSS("no-such-style"))
	})
}

func TestPage(t *testing.T) {
	page := markdown.Page("README", "# Hello\n\nSome `code`.\n")

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>README</title>")
	assert.Contains(t, page, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, page, "<style>")

	t.Run("Title is escaped", func(t *testing.T) {
		page := markdown.Page("<script>", "Text.\n")
		assert.Contains(t, page, "&lt;script&gt;")
		assert.NotContains(t, page, "<title><script></title>")
	})
}
