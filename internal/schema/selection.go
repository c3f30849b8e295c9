package schema

import "fmt"

// Selection is the caret state of an editor session. Three concrete kinds
// exist: a text range (possibly collapsed), an atomic node selection, and a
// gap cursor sitting beside a block with no text position of its own.
type Selection interface {
	From() int
	To() int
	Empty() bool
}

// TextSelection is a range between two text positions. Anchor is the fixed
// side, Head the moving side; they are equal for a collapsed caret.
type TextSelection struct {
	Anchor int
	Head   int
}

func NewCaret(pos int) *TextSelection {
	return &TextSelection{Anchor: pos, Head: pos}
}

func (s *TextSelection) From() int {
	return min(s.Anchor, s.Head)
}

func (s *TextSelection) To() int {
	return max(s.Anchor, s.Head)
}

func (s *TextSelection) Empty() bool {
	return s.Anchor == s.Head
}

// NodeSelection selects one atomic node as a whole.
type NodeSelection struct {
	Pos  int
	Node *Node
}

// NewNodeSelection selects the node starting exactly at pos.
func NewNodeSelection(doc *Node, pos int) (*NodeSelection, error) {
	r, err := Resolve(doc, pos)
	if err != nil {
		return nil, err
	}
	if !r.AtChildBoundary() || r.NodeAfter() == nil {
		return nil, fmt.Errorf("%w: no node starts at %d", ErrInvalidPosition, pos)
	}
	return &NodeSelection{Pos: pos, Node: r.NodeAfter()}, nil
}

func (s *NodeSelection) From() int {
	return s.Pos
}

func (s *NodeSelection) To() int {
	return s.Pos + s.Node.NodeSize()
}

func (s *NodeSelection) Empty() bool {
	return false
}

// GapCursor marks a block boundary beside an atom where no text selection
// can exist but insertion is still meaningful.
type GapCursor struct {
	Pos int
}

func (s *GapCursor) From() int {
	return s.Pos
}

func (s *GapCursor) To() int {
	return s.Pos
}

func (s *GapCursor) Empty() bool {
	return true
}

// ClampSelection re-targets a selection against a document of the given
// content size, used when content is replaced wholesale and the previous
// range may point past the new end.
func ClampSelection(sel Selection, size int) Selection {
	if sel == nil {
		return NewCaret(0)
	}
	clamp := func(pos int) int {
		if pos < 0 {
			return 0
		}
		if pos > size {
			return size
		}
		return pos
	}
	switch s := sel.(type) {
	case *TextSelection:
		return &TextSelection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
	case *NodeSelection:
		// The node identity cannot be trusted across a replace.
		return NewCaret(clamp(s.Pos))
	case *GapCursor:
		return &GapCursor{Pos: clamp(s.Pos)}
	}
	return NewCaret(clamp(sel.From()))
}
