// Package schema defines the structured document tree kept in sync with a
// Markdown file: a closed set of typed nodes, token positions, selections,
// and the transactions that are the only way to mutate a document.
//
// Positions follow the token-stream convention of rich-text editors:
// entering or leaving a composite node costs one token, every text rune
// costs one, and atomic nodes (images, hard breaks, rules, opaque blocks)
// cost exactly one. A position is only meaningful against the document
// revision it was computed from.
package schema

import "strings"

type NodeType int

const (
	NodeDoc NodeType = iota
	NodeFrontMatter
	NodeParagraph
	NodeHeading
	NodeBlockquote
	NodeGithubAlert
	NodeOrderedList
	NodeBulletList
	NodeListItem
	NodeCodeBlock
	NodeMermaid
	NodeTable
	NodeHTMLBlock
	NodeHorizontalRule
	NodeText
	NodeImage
	NodeHardBreak
)

func (t NodeType) String() string {
	switch t {
	case NodeDoc:
		return "doc"
	case NodeFrontMatter:
		return "frontMatter"
	case NodeParagraph:
		return "paragraph"
	case NodeHeading:
		return "heading"
	case NodeBlockquote:
		return "blockquote"
	case NodeGithubAlert:
		return "githubAlert"
	case NodeOrderedList:
		return "orderedList"
	case NodeBulletList:
		return "bulletList"
	case NodeListItem:
		return "listItem"
	case NodeCodeBlock:
		return "codeBlock"
	case NodeMermaid:
		return "mermaid"
	case NodeTable:
		return "table"
	case NodeHTMLBlock:
		return "htmlBlock"
	case NodeHorizontalRule:
		return "horizontalRule"
	case NodeText:
		return "text"
	case NodeImage:
		return "image"
	case NodeHardBreak:
		return "hardBreak"
	}
	return "unknown"
}

// AlertType restricts GitHub alerts to the five callouts GitHub renders.
type AlertType string

const (
	AlertNote      AlertType = "NOTE"
	AlertTip       AlertType = "TIP"
	AlertImportant AlertType = "IMPORTANT"
	AlertWarning   AlertType = "WARNING"
	AlertCaution   AlertType = "CAUTION"
)

// ParseAlertType matches a bracket tag body case-insensitively.
// Any other tag is not an alert and keeps blockquote semantics.
func ParseAlertType(tag string) (AlertType, bool) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "NOTE":
		return AlertNote, true
	case "TIP":
		return AlertTip, true
	case "IMPORTANT":
		return AlertImportant, true
	case "WARNING":
		return AlertWarning, true
	case "CAUTION":
		return AlertCaution, true
	}
	return "", false
}

type MarkType int

const (
	MarkBold MarkType = iota
	MarkItalic
	MarkStrike
	MarkCode
	MarkLink
)

// Mark is inline formatting applied to a text leaf.
// Delim preserves the author's delimiter (ex: * vs _ for italics).
type Mark struct {
	Type  MarkType
	Delim string
	Href  string // link only
	Title string // link only
}

func MarksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Node is one tagged node of the document tree. The attribute fields used
// depend on Type; unused fields stay zero.
type Node struct {
	Type NodeType

	// Block attributes
	Level    int    // heading: 1..6
	Alert    AlertType
	Start    int    // orderedList: first item number
	Delim    string // orderedList: "." or ")"
	Bullet   string // bulletList: "-", "*" or "+"
	Tight    bool   // lists: no blank lines between items
	Language string // codeBlock info string
	Fenced   bool   // codeBlock: fenced vs indented
	Literal  string // verbatim body of codeBlock, mermaid, frontMatter, table, htmlBlock

	// Inline attributes
	Text         string // text leaf
	Marks        []Mark // text leaf
	Src          string // image
	Alt          string // image
	Title        string // image
	IndentPrefix string // image: exact leading whitespace of an indented image line

	Children []*Node
}

/* Constructors */

func NewDoc(children ...*Node) *Node {
	return &Node{Type: NodeDoc, Children: children}
}

func NewParagraph(inlines ...*Node) *Node {
	return &Node{Type: NodeParagraph, Children: inlines}
}

func NewHeading(level int, inlines ...*Node) *Node {
	return &Node{Type: NodeHeading, Level: level, Children: inlines}
}

func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: NodeText, Text: text, Marks: marks}
}

func NewImage(src, alt string) *Node {
	return &Node{Type: NodeImage, Src: src, Alt: alt}
}

func NewHardBreak() *Node {
	return &Node{Type: NodeHardBreak}
}

func NewBlockquote(blocks ...*Node) *Node {
	return &Node{Type: NodeBlockquote, Children: blocks}
}

func NewGithubAlert(alert AlertType, blocks ...*Node) *Node {
	return &Node{Type: NodeGithubAlert, Alert: alert, Children: blocks}
}

func NewOrderedList(start int, delim string, items ...*Node) *Node {
	return &Node{Type: NodeOrderedList, Start: start, Delim: delim, Tight: true, Children: items}
}

func NewBulletList(bullet string, items ...*Node) *Node {
	return &Node{Type: NodeBulletList, Bullet: bullet, Tight: true, Children: items}
}

func NewListItem(blocks ...*Node) *Node {
	return &Node{Type: NodeListItem, Children: blocks}
}

func NewCodeBlock(language, literal string, fenced bool) *Node {
	return &Node{Type: NodeCodeBlock, Language: language, Literal: literal, Fenced: fenced}
}

func NewMermaid(literal string) *Node {
	return &Node{Type: NodeMermaid, Literal: literal}
}

func NewFrontMatter(literal string) *Node {
	return &Node{Type: NodeFrontMatter, Literal: literal}
}

func NewTable(literal string) *Node {
	return &Node{Type: NodeTable, Literal: literal}
}

func NewHTMLBlock(literal string) *Node {
	return &Node{Type: NodeHTMLBlock, Literal: literal}
}

func NewHorizontalRule() *Node {
	return &Node{Type: NodeHorizontalRule}
}

/* Classification */

// IsInline returns if the node lives inside a textblock.
func (n *Node) IsInline() bool {
	switch n.Type {
	case NodeText, NodeImage, NodeHardBreak:
		return true
	}
	return false
}

func (n *Node) IsBlock() bool {
	return !n.IsInline() && n.Type != NodeDoc
}

// IsTextblock returns if the node contains inline content.
func (n *Node) IsTextblock() bool {
	return n.Type == NodeParagraph || n.Type == NodeHeading
}

// IsAtom returns if the node is opaque to the caret: no inner positions.
func (n *Node) IsAtom() bool {
	switch n.Type {
	case NodeImage, NodeHardBreak, NodeHorizontalRule,
		NodeCodeBlock, NodeMermaid, NodeFrontMatter, NodeTable, NodeHTMLBlock:
		return true
	}
	return false
}

// AllowsChild implements the content rules of the document grammar.
func AllowsChild(parent, child NodeType) bool {
	switch parent {
	case NodeDoc:
		switch child {
		case NodeFrontMatter, NodeParagraph, NodeHeading, NodeBlockquote, NodeGithubAlert,
			NodeOrderedList, NodeBulletList, NodeCodeBlock, NodeMermaid,
			NodeTable, NodeHTMLBlock, NodeHorizontalRule:
			return true
		}
	case NodeBlockquote, NodeGithubAlert, NodeListItem:
		switch child {
		case NodeParagraph, NodeHeading, NodeBlockquote, NodeGithubAlert,
			NodeOrderedList, NodeBulletList, NodeCodeBlock, NodeMermaid,
			NodeTable, NodeHTMLBlock, NodeHorizontalRule:
			return true
		}
	case NodeOrderedList, NodeBulletList:
		return child == NodeListItem
	case NodeParagraph, NodeHeading:
		switch child {
		case NodeText, NodeImage, NodeHardBreak:
			return true
		}
	}
	return false
}

/* Sizes */

// NodeSize returns the number of token positions the node spans.
func (n *Node) NodeSize() int {
	if n.Type == NodeText {
		return len([]rune(n.Text))
	}
	if n.IsAtom() {
		return 1
	}
	return 2 + n.ContentSize()
}

// ContentSize returns the number of token positions between the node's
// opening and closing tokens.
func (n *Node) ContentSize() int {
	size := 0
	for _, child := range n.Children {
		size += child.NodeSize()
	}
	return size
}

/* Traversal */

// ForEach calls fn for every direct child with its offset inside the node content.
func (n *Node) ForEach(fn func(child *Node, offset int)) {
	offset := 0
	for _, child := range n.Children {
		fn(child, offset)
		offset += child.NodeSize()
	}
}

// Descendants walks the subtree depth-first with absolute positions.
// The callback returns false to skip a node's children. The doc node itself
// is not visited; its content starts at position 0.
func (n *Node) Descendants(fn func(child *Node, pos int) bool) {
	n.descendants(0, fn)
}

func (n *Node) descendants(start int, fn func(child *Node, pos int) bool) {
	offset := start
	for _, child := range n.Children {
		if fn(child, offset) && len(child.Children) > 0 {
			child.descendants(offset+1, fn)
		}
		offset += child.NodeSize()
	}
}

/* Copies and comparisons */

// Clone returns a deep copy: transactions work on clones so a failed edit
// never leaves the original tree partially mutated.
func (n *Node) Clone() *Node {
	clone := *n
	if n.Marks != nil {
		clone.Marks = append([]Mark(nil), n.Marks...)
	}
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return &clone
}

// Equal compares two subtrees structurally, attributes included.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Type != other.Type ||
		n.Level != other.Level ||
		n.Alert != other.Alert ||
		n.Start != other.Start ||
		n.Delim != other.Delim ||
		n.Bullet != other.Bullet ||
		n.Tight != other.Tight ||
		n.Language != other.Language ||
		n.Fenced != other.Fenced ||
		n.Literal != other.Literal ||
		n.Text != other.Text ||
		n.Src != other.Src ||
		n.Alt != other.Alt ||
		n.Title != other.Title ||
		n.IndentPrefix != other.IndentPrefix {
		return false
	}
	if !MarksEqual(n.Marks, other.Marks) {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// TextContent concatenates the text of all descendant text leaves.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	if n.Type == NodeText {
		sb.WriteString(n.Text)
	}
	for _, child := range n.Children {
		child.collectText(sb)
	}
}
