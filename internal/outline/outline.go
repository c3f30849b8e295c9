// Package outline computes the table of contents of a document and the
// extent of each heading's section.
package outline

import (
	"github.com/md4h/prosedown/internal/schema"
)

// Heading is one outline row: the heading's level, its plain text and the
// absolute position of the heading node in the document.
type Heading struct {
	Level int
	Text  string
	Pos   int
}

// Section is a heading together with the position its section ends at.
type Section struct {
	Heading
	End int
}

// FromDocument collects every heading in document order, wherever it
// nests. The position is the token position of the heading node itself.
func FromDocument(doc *schema.Node) []Heading {
	var headings []Heading
	doc.Descendants(func(n *schema.Node, pos int) bool {
		if n.Type == schema.NodeHeading {
			headings = append(headings, Heading{
				Level: n.Level,
				Text:  n.TextContent(),
				Pos:   pos,
			})
			return false
		}
		return true
	})
	return headings
}

// Compute resolves where each heading's section ends: at the first later
// heading whose level is less than or equal to its own, or at docSize.
// A skipped level still terminates the shallower section, an H3 section
// ends at a following H2 even when no other H3 exists.
func Compute(headings []Heading, docSize int) []Section {
	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		end := docSize
		for _, later := range headings[i+1:] {
			if later.Level <= h.Level {
				end = later.Pos
				break
			}
		}
		sections = append(sections, Section{Heading: h, End: end})
	}
	return sections
}

// Sections is the usual entry point: collect and resolve in one call.
func Sections(doc *schema.Node) []Section {
	return Compute(FromDocument(doc), doc.ContentSize())
}

// At returns the stack of sections containing pos, outermost first.
// Useful for breadcrumbs: the caret inside an H3 under an H1 yields both.
func At(sections []Section, pos int) []Section {
	var stack []Section
	for _, s := range sections {
		if s.Pos <= pos && pos < s.End {
			stack = append(stack, s)
		}
	}
	return stack
}
