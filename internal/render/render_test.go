package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/render"
	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/internal/testutil"
)

// Canonical sources must survive a parse/render cycle byte for byte.
func TestRenderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		md   string
	}{
		{
			name: "Headings and paragraphs",
			md: "" +
				"# Title\n" +
				"\n" +
				"First paragraph.\n" +
				"\n" +
				"## Section\n" +
				"\n" +
				"Second paragraph\n" +
				"on two lines.\n",
		},
		{
			name: "Inline styles",
			md:   "Mix of **bold**, *italic*, __strong__, _em_, ~~strike~~ and `code`.\n",
		},
		{
			name: "Bold italic",
			md:   "***both at once***\n",
		},
		{
			name: "Hard break",
			md: "" +
				"first\\\n" +
				"second\n",
		},
		{
			name: "Links",
			md:   "See [docs](https://example.com \"Docs\") and <https://example.com> inline.\n",
		},
		{
			name: "Snake case survives",
			md:   "variable names like snake_case_name stay intact\n",
		},
		{
			name: "Blockquote",
			md: "" +
				"> quoted\n" +
				"> and more\n",
		},
		{
			name: "Alert",
			md: "" +
				"> [!CAUTION]\n" +
				"> Mind the gap.\n",
		},
		{
			name: "Alert with marker only",
			md:   "> [!NOTE]\n",
		},
		{
			name: "Ordered list with paren delimiter",
			md: "" +
				"3) three\n" +
				"4) four\n",
		},
		{
			name: "Loose list",
			md: "" +
				"- alpha\n" +
				"\n" +
				"- beta\n",
		},
		{
			name: "Fenced code",
			md: "" +
				"```python\n" +
				"print('hi')\n" +
				"```\n",
		},
		{
			name: "Mermaid",
			md: "" +
				"```mermaid\n" +
				"flowchart LR\n" +
				"```\n",
		},
		{
			name: "Indented code",
			md: "" +
				"    x = 1\n" +
				"    y = 2\n",
		},
		{
			name: "Indented images",
			md: "" +
				"    ![one](a.png)\n" +
				"    ![two](b.png)\n",
		},
		{
			name: "Image with spaces in the path",
			md:   "![shot](<Screenshot 2024-01-01.png>)\n",
		},
		{
			name: "Front matter",
			md: "" +
				"---\n" +
				"title: Test\n" +
				"---\n" +
				"\n" +
				"Body.\n",
		},
		{
			name: "Table",
			md: "" +
				"| a | b |\n" +
				"| --- | --- |\n" +
				"| 1 | 2 |\n",
		},
		{
			name: "Escaped emphasis",
			md:   "\\*literal stars\\*\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parser.Parse(tt.md)
			assert.Equal(t, tt.md, render.Render(doc))
		})
	}
}

// Non-canonical sources converge after one cycle: the second render
// reproduces the first, and the tree no longer changes.
func TestRenderCanonicalizes(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		expected string
	}{
		{
			name: "Setext becomes ATX",
			md: "" +
				"Title\n" +
				"=====\n",
			expected: "# Title\n",
		},
		{
			name: "Setext level two",
			md: "" +
				"Section\n" +
				"---\n",
			expected: "## Section\n",
		},
		{
			name:     "Thematic break variants collapse",
			md:       "* * *\n",
			expected: "---\n",
		},
		{
			name: "Alert tag uppercased",
			md: "" +
				"> [!note]\n" +
				"> text\n",
			expected: "" +
				"> [!NOTE]\n" +
				"> text\n",
		},
		{
			name: "Ordered numbering rewritten from start",
			md: "" +
				"1. a\n" +
				"1. b\n" +
				"1. c\n",
			expected: "" +
				"1. a\n" +
				"2. b\n" +
				"3. c\n",
		},
		{
			name:     "Closing hashes dropped",
			md:       "## Title ##\n",
			expected: "## Title\n",
		},
		{
			name:     "Spaced image path gains angle brackets",
			md:       "![shot](my photo.png)\n",
			expected: "![shot](<my photo.png>)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := render.Render(parser.Parse(tt.md))
			assert.Equal(t, tt.expected, first)
			// Idempotent from here on.
			assert.Equal(t, first, render.Render(parser.Parse(first)))
		})
	}
}

// Text that merely looks like Markdown must come back as the same tree.
func TestRenderEscapesReparse(t *testing.T) {
	tests := []struct {
		name string
		doc  *schema.Node
	}{
		{
			name: "Leading hash",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("# not a heading")),
			),
		},
		{
			name: "Leading quote arrow",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("> not a quote")),
			),
		},
		{
			name: "Leading bullet",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("- not an item")),
			),
		},
		{
			name: "Leading number",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("1. not an item")),
			),
		},
		{
			name: "Dashes only",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("---")),
			),
		},
		{
			name: "Setext lookalike on the second line",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("text\n===")),
			),
		},
		{
			name: "Inline specials",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("a*b `c` [d] ~~e~~")),
			),
		},
		{
			name: "Autolink lookalike",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("<https://example.com>")),
			),
		},
		{
			name: "HTML lookalike",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("<div>text</div>")),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render.Render(tt.doc)
			assert.Equal(t, tt.doc, parser.Parse(out), "rendered as %q", out)
		})
	}
}

func TestRenderDefaultDelimiters(t *testing.T) {
	tests := []struct {
		name     string
		doc      *schema.Node
		expected string
	}{
		{
			name: "Bold without recorded delimiter",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("x", schema.Mark{Type: schema.MarkBold})),
			),
			expected: "**x**\n",
		},
		{
			name: "Code picks a fence longer than its content",
			doc: schema.NewDoc(
				schema.NewParagraph(schema.NewText("a`b", schema.Mark{Type: schema.MarkCode})),
			),
			expected: "``a`b``\n",
		},
		{
			name: "Link without autolink shape",
			doc: schema.NewDoc(
				schema.NewParagraph(
					schema.NewText("here", schema.Mark{Type: schema.MarkLink, Href: "a b.md"}),
				),
			),
			expected: "[here](<a b.md>)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render.Render(tt.doc))
		})
	}
}

func TestRenderGoldenFile(t *testing.T) {
	src := string(testutil.GoldenFile(t))

	doc := parser.Parse(src)
	out := render.Render(doc)
	assert.Equal(t, src, out)

	// The reparse of the output is tree-identical.
	assert.Equal(t, doc, parser.Parse(out))
}
