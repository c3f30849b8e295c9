// Package markdown converts Markdown text to standalone HTML for previews.
package markdown

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma"
	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"
)

// DefaultStyle is the Chroma style used to highlight fenced code blocks.
const DefaultStyle = "github"

// classPrefix namespaces the highlight classes so they cannot collide with
// the page's own CSS.
const classPrefix = "highlight-"

var formatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.ClassPrefix(classPrefix))

// ToHTML converts a Markdown document to an HTML fragment. Fenced code
// blocks are highlighted with classes; pair the output with HighlightCSS.
func ToHTML(md string) string {
	p := mdparser.NewWithExtensions(mdparser.CommonExtensions | mdparser.AutoHeadingIDs)
	opts := mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags,
		RenderNodeHook: renderCodeBlock,
	}
	output := markdown.ToHTML([]byte(md), p, mdhtml.NewRenderer(opts))
	return strings.TrimSpace(string(output))
}

// HighlightCSS returns the stylesheet matching the classes emitted by
// ToHTML. Unknown style names fall back to the Chroma default.
func HighlightCSS(style string) string {
	var sb strings.Builder
	if err := formatter.WriteCSS(&sb, styles.Get(style)); err != nil {
		return ""
	}
	return sb.String()
}

// Page wraps a Markdown document into a complete self-contained HTML page.
func Page(title, md string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("<style>\n")
	sb.WriteString(baseCSS)
	sb.WriteString(HighlightCSS(DefaultStyle))
	sb.WriteString("</style>\n</head>\n<body>\n<article>\n")
	sb.WriteString(ToHTML(md))
	sb.WriteString("\n</article>\n</body>\n</html>\n")
	return sb.String()
}

// renderCodeBlock intercepts fenced code blocks and routes them through
// Chroma. Everything else keeps the default rendering.
func renderCodeBlock(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	block, ok := node.(*ast.CodeBlock)
	if !ok {
		return ast.GoToNext, false
	}
	highlight(w, string(block.Info), string(block.Literal))
	return ast.GoToNext, true
}

func highlight(w io.Writer, lang, source string) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		fmt.Fprintf(w, "<pre><code>%s</code></pre>", html.EscapeString(source))
		return
	}
	if err := formatter.Format(w, styles.Get(DefaultStyle), iterator); err != nil {
		fmt.Fprintf(w, "<pre><code>%s</code></pre>", html.EscapeString(source))
	}
}

const baseCSS = `article {
  max-width: 46rem;
  margin: 2rem auto;
  padding: 0 1rem;
  font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
  line-height: 1.6;
  color: #1f2328;
}
article img { max-width: 100%; }
article blockquote {
  margin: 0 0 1rem;
  padding: 0 1em;
  border-left: 0.25em solid #d1d9e0;
  color: #59636e;
}
article pre {
  padding: 1em;
  overflow-x: auto;
  border-radius: 6px;
  background-color: #f6f8fa;
}
article code { font-family: ui-monospace, "SF Mono", Menlo, monospace; }
`
