// Package render serializes a document tree back to Markdown.
//
// The serializer is the inverse of the parser: rendering a freshly parsed
// document must yield a tree-identical document when parsed again, and for
// documents already in canonical form it reproduces the source bytes.
// Verbatim nodes (tables, raw HTML, indented code) are emitted exactly as
// captured, so constructs the editor does not restructure never churn.
package render

import (
	"strconv"
	"strings"

	"github.com/md4h/prosedown/internal/schema"
)

type renderFunc func(n *schema.Node) string

var blockRenderers map[schema.NodeType]renderFunc

func init() {
	blockRenderers = map[schema.NodeType]renderFunc{
		schema.NodeFrontMatter:    renderFrontMatter,
		schema.NodeParagraph:      renderParagraph,
		schema.NodeHeading:        renderHeading,
		schema.NodeBlockquote:     renderBlockquote,
		schema.NodeGithubAlert:    renderGithubAlert,
		schema.NodeOrderedList:    renderList,
		schema.NodeBulletList:     renderList,
		schema.NodeCodeBlock:      renderCodeBlock,
		schema.NodeMermaid:        renderMermaid,
		schema.NodeTable:          renderVerbatim,
		schema.NodeHTMLBlock:      renderVerbatim,
		schema.NodeHorizontalRule: renderHorizontalRule,
	}
}

// Render serializes a whole document, blocks separated by blank lines,
// with a trailing newline.
func Render(doc *schema.Node) string {
	out := renderBlocks(doc.Children)
	if out == "" {
		return ""
	}
	return out + "\n"
}

func renderBlocks(blocks []*schema.Node) string {
	var parts []string
	for _, b := range blocks {
		parts = append(parts, renderBlock(b))
	}
	return strings.Join(parts, "\n\n")
}

func renderBlock(n *schema.Node) string {
	if fn, ok := blockRenderers[n.Type]; ok {
		return fn(n)
	}
	return ""
}

func renderFrontMatter(n *schema.Node) string {
	if n.Literal == "" {
		return "---\n---"
	}
	return "---\n" + n.Literal + "\n---"
}

func renderParagraph(n *schema.Node) string {
	return escapeBlockStarts(renderInlineContent(n.Children))
}

func renderHeading(n *schema.Node) string {
	hashes := strings.Repeat("#", n.Level)
	content := renderInlineContent(n.Children)
	if content == "" {
		return hashes
	}
	return hashes + " " + content
}

func renderBlockquote(n *schema.Node) string {
	return prefixLines(renderBlocks(n.Children))
}

// renderGithubAlert writes the marker line back above the content. The
// marker is document text on disk even though it never appears in the
// tree.
func renderGithubAlert(n *schema.Node) string {
	marker := "[!" + strings.ToUpper(string(n.Alert)) + "]"
	body := renderBlocks(n.Children)
	if body == "" {
		return prefixLines(marker)
	}
	return prefixLines(marker + "\n" + body)
}

func renderList(n *schema.Node) string {
	itemSep := "\n"
	blockSep := "\n"
	if !n.Tight {
		itemSep = "\n\n"
		blockSep = "\n\n"
	}

	var items []string
	for i, item := range n.Children {
		var marker string
		if n.Type == schema.NodeOrderedList {
			marker = strconv.Itoa(n.Start+i) + n.Delim + " "
		} else {
			marker = n.Bullet + " "
		}

		var parts []string
		for _, b := range item.Children {
			parts = append(parts, renderBlock(b))
		}
		content := strings.Join(parts, blockSep)
		items = append(items, indentContinuation(marker, content))
	}
	return strings.Join(items, itemSep)
}

func renderCodeBlock(n *schema.Node) string {
	if !n.Fenced {
		// Indented code was captured with its indentation intact.
		return n.Literal
	}
	fence := safeFence(n.Literal)
	if n.Literal == "" {
		return fence + n.Language + "\n" + fence
	}
	return fence + n.Language + "\n" + n.Literal + "\n" + fence
}

func renderMermaid(n *schema.Node) string {
	fence := safeFence(n.Literal)
	if n.Literal == "" {
		return fence + "mermaid\n" + fence
	}
	return fence + "mermaid\n" + n.Literal + "\n" + fence
}

func renderVerbatim(n *schema.Node) string {
	return n.Literal
}

func renderHorizontalRule(n *schema.Node) string {
	return "---"
}

/* Helpers */

// prefixLines turns a rendered fragment into blockquote lines. Non-empty
// lines get "> ", empty ones a bare ">".
func prefixLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// indentContinuation prepends the list marker to the first line and aligns
// every following line under the item content.
func indentContinuation(marker, content string) string {
	if content == "" {
		return marker
	}
	pad := strings.Repeat(" ", len(marker))
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return marker + strings.Join(lines, "\n")
}

// safeFence picks a fence longer than any backtick run in the literal.
func safeFence(literal string) string {
	longest := 0
	run := 0
	for i := 0; i < len(literal); i++ {
		if literal[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
