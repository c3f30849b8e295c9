package schema

import "github.com/md4h/prosedown/pkg/text"

// Normalize removes doc-level paragraphs whose content is nothing but
// whitespace and hard breaks. Structural edits around atomic images leave
// such husks behind; serialized as-is they accumulate blank lines in the
// Markdown file on every save.
//
// Paragraphs nested inside other blocks (list items, alerts, blockquotes)
// are kept: there an empty paragraph is deliberate spacing. Idempotent.
func Normalize(doc *Node) *Node {
	children := make([]*Node, 0, len(doc.Children))
	for _, child := range doc.Children {
		if child.Type == NodeParagraph && isEmptyParagraph(child) {
			continue
		}
		children = append(children, child)
	}
	if len(children) == len(doc.Children) {
		return doc
	}
	normalized := *doc
	normalized.Children = children
	return &normalized
}

func isEmptyParagraph(n *Node) bool {
	for _, child := range n.Children {
		switch child.Type {
		case NodeHardBreak:
			// ignore
		case NodeText:
			if !text.IsBlank(child.Text) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
