package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/schema"
)

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		expected *schema.Node
	}{
		{
			name:     "Empty",
			md:       "",
			expected: schema.NewDoc(),
		},
		{
			name: "Heading and paragraph",
			md: "" +
				"# Title\n" +
				"\n" +
				"Hello\n",
			expected: schema.NewDoc(
				schema.NewHeading(1, schema.NewText("Title")),
				schema.NewParagraph(schema.NewText("Hello")),
			),
		},
		{
			name: "Heading with closing hashes",
			md:   "## Subtitle ##\n",
			expected: schema.NewDoc(
				schema.NewHeading(2, schema.NewText("Subtitle")),
			),
		},
		{
			name: "Setext headings",
			md: "" +
				"First\n" +
				"=====\n" +
				"\n" +
				"Second\n" +
				"---\n",
			expected: schema.NewDoc(
				schema.NewHeading(1, schema.NewText("First")),
				schema.NewHeading(2, schema.NewText("Second")),
			),
		},
		{
			name: "Soft break stays inside the text leaf",
			md: "" +
				"line one\n" +
				"line two\n",
			expected: schema.NewDoc(
				schema.NewParagraph(schema.NewText("line one\nline two")),
			),
		},
		{
			name: "Hard break from trailing backslash",
			md: "" +
				"one\\\n" +
				"two\n",
			expected: schema.NewDoc(
				schema.NewParagraph(
					schema.NewText("one"),
					schema.NewHardBreak(),
					schema.NewText("two"),
				),
			),
		},
		{
			name: "Hard break from two trailing spaces",
			md: "" +
				"one  \n" +
				"two\n",
			expected: schema.NewDoc(
				schema.NewParagraph(
					schema.NewText("one"),
					schema.NewHardBreak(),
					schema.NewText("two"),
				),
			),
		},
		{
			name: "Thematic break",
			md: "" +
				"above\n" +
				"\n" +
				"---\n" +
				"\n" +
				"below\n",
			expected: schema.NewDoc(
				schema.NewParagraph(schema.NewText("above")),
				schema.NewHorizontalRule(),
				schema.NewParagraph(schema.NewText("below")),
			),
		},
		{
			name: "Lone opening dashes stay a thematic break",
			md:   "---\n",
			expected: schema.NewDoc(
				schema.NewHorizontalRule(),
			),
		},
		{
			name: "Front matter",
			md: "" +
				"---\n" +
				"title: Test\n" +
				"tags: [a, b]\n" +
				"---\n" +
				"\n" +
				"# Hi\n",
			expected: schema.NewDoc(
				schema.NewFrontMatter("title: Test\ntags: [a, b]"),
				schema.NewHeading(1, schema.NewText("Hi")),
			),
		},
		{
			name: "Blockquote",
			md:   "> quoted text\n",
			expected: schema.NewDoc(
				schema.NewBlockquote(
					schema.NewParagraph(schema.NewText("quoted text")),
				),
			),
		},
		{
			name: "Nested blockquote",
			md: "" +
				"> outer\n" +
				"> > inner\n",
			expected: schema.NewDoc(
				schema.NewBlockquote(
					schema.NewParagraph(schema.NewText("outer")),
					schema.NewBlockquote(
						schema.NewParagraph(schema.NewText("inner")),
					),
				),
			),
		},
		{
			name: "Fenced code block",
			md: "" +
				"```go\n" +
				"fmt.Println(\"hi\")\n" +
				"```\n",
			expected: schema.NewDoc(
				schema.NewCodeBlock("go", "fmt.Println(\"hi\")", true),
			),
		},
		{
			name: "Fence content is never reinterpreted",
			md: "" +
				"```\n" +
				"# not a heading\n" +
				"> not a quote\n" +
				"```\n",
			expected: schema.NewDoc(
				schema.NewCodeBlock("", "# not a heading\n> not a quote", true),
			),
		},
		{
			name: "Mermaid diagram",
			md: "" +
				"```mermaid\n" +
				"graph TD\n" +
				"  A --> B\n" +
				"```\n",
			expected: schema.NewDoc(
				schema.NewMermaid("graph TD\n  A --> B"),
			),
		},
		{
			name: "Indented code block keeps its bytes",
			md: "" +
				"    if x {\n" +
				"        y()\n" +
				"    }\n",
			expected: schema.NewDoc(
				schema.NewCodeBlock("", "    if x {\n        y()\n    }", false),
			),
		},
		{
			name: "Mermaid is fenced only",
			md: "" +
				"    graph TD\n" +
				"      A --> B\n",
			expected: schema.NewDoc(
				schema.NewCodeBlock("", "    graph TD\n      A --> B", false),
			),
		},
		{
			name: "Ordered list",
			md: "" +
				"1. first\n" +
				"2. second\n",
			expected: schema.NewDoc(
				schema.NewOrderedList(1, ".",
					schema.NewListItem(schema.NewParagraph(schema.NewText("first"))),
					schema.NewListItem(schema.NewParagraph(schema.NewText("second"))),
				),
			),
		},
		{
			name: "Ordered list starting at five",
			md: "" +
				"5. five\n" +
				"6. six\n",
			expected: schema.NewDoc(
				schema.NewOrderedList(5, ".",
					schema.NewListItem(schema.NewParagraph(schema.NewText("five"))),
					schema.NewListItem(schema.NewParagraph(schema.NewText("six"))),
				),
			),
		},
		{
			name: "Paren delimiter",
			md: "" +
				"1) one\n" +
				"2) two\n",
			expected: schema.NewDoc(
				schema.NewOrderedList(1, ")",
					schema.NewListItem(schema.NewParagraph(schema.NewText("one"))),
					schema.NewListItem(schema.NewParagraph(schema.NewText("two"))),
				),
			),
		},
		{
			name: "Delimiter switch starts a sibling list",
			md: "" +
				"1. one\n" +
				"2) two\n",
			expected: schema.NewDoc(
				schema.NewOrderedList(1, ".",
					schema.NewListItem(schema.NewParagraph(schema.NewText("one"))),
				),
				schema.NewOrderedList(2, ")",
					schema.NewListItem(schema.NewParagraph(schema.NewText("two"))),
				),
			),
		},
		{
			name: "Bullet list",
			md: "" +
				"- a\n" +
				"- b\n",
			expected: schema.NewDoc(
				schema.NewBulletList("-",
					schema.NewListItem(schema.NewParagraph(schema.NewText("a"))),
					schema.NewListItem(schema.NewParagraph(schema.NewText("b"))),
				),
			),
		},
		{
			name: "Nested list",
			md: "" +
				"- a\n" +
				"  - b\n",
			expected: schema.NewDoc(
				schema.NewBulletList("-",
					schema.NewListItem(
						schema.NewParagraph(schema.NewText("a")),
						schema.NewBulletList("-",
							schema.NewListItem(schema.NewParagraph(schema.NewText("b"))),
						),
					),
				),
			),
		},
		{
			name: "Loose list",
			md: "" +
				"- a\n" +
				"\n" +
				"- b\n",
			expected: schema.NewDoc(
				looseBulletList("-",
					schema.NewListItem(schema.NewParagraph(schema.NewText("a"))),
					schema.NewListItem(schema.NewParagraph(schema.NewText("b"))),
				),
			),
		},
		{
			name: "Prose with a year does not split into a list",
			md: "" +
				"Sales grew in\n" +
				"2024. Better than ever.\n",
			expected: schema.NewDoc(
				schema.NewParagraph(schema.NewText("Sales grew in\n2024. Better than ever.")),
			),
		},
		{
			name: "Table captured verbatim",
			md: "" +
				"| a | b |\n" +
				"| --- | --- |\n" +
				"| 1 | 2 |\n",
			expected: schema.NewDoc(
				schema.NewTable("| a | b |\n| --- | --- |\n| 1 | 2 |"),
			),
		},
		{
			name: "HTML block captured verbatim",
			md: "" +
				"<div class=\"x\">\n" +
				"  <p>hello</p>\n" +
				"</div>\n",
			expected: schema.NewDoc(
				schema.NewHTMLBlock("<div class=\"x\">\n  <p>hello</p>\n</div>"),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := parser.Parse(tt.md)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestParseInlines(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		expected []*schema.Node // paragraph content
	}{
		{
			name: "Bold",
			md:   "**strong**",
			expected: []*schema.Node{
				schema.NewText("strong", schema.Mark{Type: schema.MarkBold, Delim: "**"}),
			},
		},
		{
			name: "Bold with underscores keeps its delimiter",
			md:   "__strong__",
			expected: []*schema.Node{
				schema.NewText("strong", schema.Mark{Type: schema.MarkBold, Delim: "__"}),
			},
		},
		{
			name: "Italic",
			md:   "*em*",
			expected: []*schema.Node{
				schema.NewText("em", schema.Mark{Type: schema.MarkItalic, Delim: "*"}),
			},
		},
		{
			name: "Bold italic",
			md:   "***both***",
			expected: []*schema.Node{
				schema.NewText("both",
					schema.Mark{Type: schema.MarkBold, Delim: "**"},
					schema.Mark{Type: schema.MarkItalic, Delim: "*"}),
			},
		},
		{
			name: "Strikethrough",
			md:   "~~gone~~",
			expected: []*schema.Node{
				schema.NewText("gone", schema.Mark{Type: schema.MarkStrike, Delim: "~~"}),
			},
		},
		{
			name: "Snake case is not emphasis",
			md:   "see snake_case_name here",
			expected: []*schema.Node{
				schema.NewText("see snake_case_name here"),
			},
		},
		{
			name: "Code span",
			md:   "run `go build` now",
			expected: []*schema.Node{
				schema.NewText("run "),
				schema.NewText("go build", schema.Mark{Type: schema.MarkCode, Delim: "`"}),
				schema.NewText(" now"),
			},
		},
		{
			name: "Code span with backtick content",
			md:   "`` a`b ``",
			expected: []*schema.Node{
				schema.NewText("a`b", schema.Mark{Type: schema.MarkCode, Delim: "``"}),
			},
		},
		{
			name: "Markdown inside code stays literal",
			md:   "`**not bold**`",
			expected: []*schema.Node{
				schema.NewText("**not bold**", schema.Mark{Type: schema.MarkCode, Delim: "`"}),
			},
		},
		{
			name: "Link",
			md:   "[docs](https://example.com)",
			expected: []*schema.Node{
				schema.NewText("docs", schema.Mark{Type: schema.MarkLink, Href: "https://example.com"}),
			},
		},
		{
			name: "Link with title",
			md:   "[docs](https://example.com \"The docs\")",
			expected: []*schema.Node{
				schema.NewText("docs", schema.Mark{
					Type:  schema.MarkLink,
					Href:  "https://example.com",
					Title: "The docs",
				}),
			},
		},
		{
			name: "Styled text inside a link",
			md:   "[a **b** c](u)",
			expected: []*schema.Node{
				schema.NewText("a ", schema.Mark{Type: schema.MarkLink, Href: "u"}),
				schema.NewText("b",
					schema.Mark{Type: schema.MarkLink, Href: "u"},
					schema.Mark{Type: schema.MarkBold, Delim: "**"}),
				schema.NewText(" c", schema.Mark{Type: schema.MarkLink, Href: "u"}),
			},
		},
		{
			name: "Autolink",
			md:   "<https://example.com>",
			expected: []*schema.Node{
				schema.NewText("https://example.com",
					schema.Mark{Type: schema.MarkLink, Href: "https://example.com"}),
			},
		},
		{
			name: "Inline image",
			md:   "![alt text](img.png)",
			expected: []*schema.Node{
				schema.NewImage("img.png", "alt text"),
			},
		},
		{
			name: "Image path with spaces in angle brackets",
			md:   "![shot](<my photo.png>)",
			expected: []*schema.Node{
				schema.NewImage("my photo.png", "shot"),
			},
		},
		{
			name: "Image with a bare spaced path",
			md:   "![shot](my photo.png)",
			expected: []*schema.Node{
				schema.NewImage("my photo.png", "shot"),
			},
		},
		{
			name: "Image with title",
			md:   "![a](img.png \"hover\")",
			expected: []*schema.Node{
				imageWithTitle("img.png", "a", "hover"),
			},
		},
		{
			name: "Escaped punctuation",
			md:   "\\*not emphasis\\*",
			expected: []*schema.Node{
				schema.NewText("*not emphasis*"),
			},
		},
		{
			name: "Unclosed delimiters stay literal",
			md:   "a ** b",
			expected: []*schema.Node{
				schema.NewText("a ** b"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parser.Parse(tt.md + "\n")
			expected := schema.NewDoc(schema.NewParagraph(tt.expected...))
			assert.Equal(t, expected, doc)
		})
	}
}

func TestParseIndentedImages(t *testing.T) {
	t.Run("Run of indented images becomes a paragraph", func(t *testing.T) {
		md := "" +
			"    ![first](a.png)\n" +
			"    ![second](b.png)\n"
		first := schema.NewImage("a.png", "first")
		first.IndentPrefix = "    "
		second := schema.NewImage("b.png", "second")
		second.IndentPrefix = "    "
		expected := schema.NewDoc(
			schema.NewParagraph(first, schema.NewHardBreak(), second),
		)
		assert.Equal(t, expected, parser.Parse(md))
	})

	t.Run("Tab indentation is preserved exactly", func(t *testing.T) {
		md := "\t![shot](a.png)\n"
		img := schema.NewImage("a.png", "shot")
		img.IndentPrefix = "\t"
		expected := schema.NewDoc(schema.NewParagraph(img))
		assert.Equal(t, expected, parser.Parse(md))
	})

	t.Run("Mixed run falls back to indented code", func(t *testing.T) {
		md := "" +
			"    ![first](a.png)\n" +
			"    not an image\n"
		expected := schema.NewDoc(
			schema.NewCodeBlock("", "    ![first](a.png)\n    not an image", false),
		)
		assert.Equal(t, expected, parser.Parse(md))
	})
}

/* Helpers */

func looseBulletList(bullet string, items ...*schema.Node) *schema.Node {
	list := schema.NewBulletList(bullet, items...)
	list.Tight = false
	return list
}

func imageWithTitle(src, alt, title string) *schema.Node {
	img := schema.NewImage(src, alt)
	img.Title = title
	return img
}
