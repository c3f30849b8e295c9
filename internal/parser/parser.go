// Package parser turns Markdown text into a schema document tree.
//
// Parsing is two-phased like most CommonMark implementations: a line-based
// block scan followed by an inline scan over each textblock. Every block
// construct owns one handler; handlers are tried in a fixed priority order,
// most specific first, and signal a mismatch by returning nothing so the
// next handler gets its chance. The final handler (paragraph) matches any
// line, so the scan is total: there is no such thing as unparseable input,
// only input that falls through to plainer constructs.
package parser

import (
	"strings"

	"github.com/md4h/prosedown/internal/frontmatter"
	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/pkg/text"
)

// blockHandlers in priority order. Indented blocks must run after fences
// (a fenced block is never reinterpreted, whatever it contains) and before
// everything else that could claim a 4-space line. The paragraph handler
// matches unconditionally and must stay last.
// Populated in init to break the static initialization cycle through
// parseList -> parseBlocks -> blockHandlers.
var blockHandlers []blockHandler

func init() {
	blockHandlers = []blockHandler{
		parseFencedBlock,
		parseIndentedBlock,
		parseBlockquote,
		parseATXHeading,
		parseThematicBreak,
		parseList,
		parseTable,
		parseHTMLBlock,
		parseParagraph,
	}
}

type blockHandler func(p *parser) []*schema.Node

type parser struct {
	it *text.LineIterator
}

// Parse builds the document tree for a Markdown text. It never fails:
// content no handler claims ends up as paragraph text.
func Parse(md string) *schema.Node {
	md = strings.ReplaceAll(md, "\r\n", "\n")

	doc := schema.NewDoc()

	if fm, rest, ok := frontmatter.Split(md); ok {
		doc.Children = append(doc.Children, schema.NewFrontMatter(string(fm)))
		md = rest
	}

	doc.Children = append(doc.Children, parseBlocks(md)...)
	return doc
}

// parseBlocks runs the block scan. Used for the document body and
// recursively for blockquote and list item content, where front matter
// must not be recognized.
func parseBlocks(md string) []*schema.Node {
	p := &parser{it: text.NewLineIteratorFromText(md)}

	var blocks []*schema.Node
	for {
		p.it.SkipBlankLines()
		if !p.it.HasNext() {
			break
		}
		for _, handler := range blockHandlers {
			if nodes := handler(p); len(nodes) > 0 {
				blocks = append(blocks, nodes...)
				break
			}
		}
	}
	return blocks
}

