package schema

import (
	"errors"
	"fmt"
)

var ErrInvalidPosition = errors.New("position outside document")

// ResolvedPos is a position paired with the chain of ancestors around it.
// Depth 0 is the doc; the deepest level is the node whose content holds
// the position.
type ResolvedPos struct {
	Pos int

	doc  *Node
	path []pathLevel
}

type pathLevel struct {
	node       *Node
	index      int // child index the position points at or into
	start      int // absolute position where node's content starts
	offset     int // position relative to node's content start
	childStart int // offset of child #index inside node's content
}

// Resolve locates pos inside doc.
func Resolve(doc *Node, pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > doc.ContentSize() {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidPosition, pos, doc.ContentSize())
	}

	r := &ResolvedPos{Pos: pos, doc: doc}

	node := doc
	start := 0
	for {
		rem := pos - start

		// Count the children wholly before rem.
		index := 0
		childStart := 0
		var child *Node
		for _, c := range node.Children {
			if childStart+c.NodeSize() <= rem {
				childStart += c.NodeSize()
				index++
				continue
			}
			child = c
			break
		}

		r.path = append(r.path, pathLevel{node: node, index: index, start: start, offset: rem, childStart: childStart})

		if child == nil || rem == childStart {
			// At the end of the content or exactly on a child boundary.
			return r, nil
		}
		if child.Type == NodeText {
			// Inside a text run. Atoms have no inside: their single token
			// means a position is either before or after them.
			return r, nil
		}

		node = child
		start = start + childStart + 1
	}
}

// MustResolve panics on an invalid position. Reserved for positions that
// were just produced by the document itself.
func MustResolve(doc *Node, pos int) *ResolvedPos {
	r, err := Resolve(doc, pos)
	if err != nil {
		panic(err)
	}
	return r
}

// Depth returns the nesting depth of the innermost node (doc = 0).
func (r *ResolvedPos) Depth() int {
	return len(r.path) - 1
}

// Parent returns the node whose content contains the position.
func (r *ResolvedPos) Parent() *Node {
	return r.path[len(r.path)-1].node
}

// Index returns the child index the position points at inside Parent.
func (r *ResolvedPos) Index() int {
	return r.path[len(r.path)-1].index
}

// ParentOffset returns the position relative to Parent's content start.
func (r *ResolvedPos) ParentOffset() int {
	return r.path[len(r.path)-1].offset
}

// Node returns the ancestor at the given depth.
func (r *ResolvedPos) Node(depth int) *Node {
	return r.path[depth].node
}

// Start returns the absolute position where the content of the ancestor at
// depth starts.
func (r *ResolvedPos) Start(depth int) int {
	return r.path[depth].start
}

// End returns the absolute position where the content of the ancestor at
// depth ends.
func (r *ResolvedPos) End(depth int) int {
	return r.path[depth].start + r.path[depth].node.ContentSize()
}

// Before returns the position immediately before the ancestor at depth.
// Depth 0 (the doc) has no before.
func (r *ResolvedPos) Before(depth int) (int, error) {
	if depth == 0 {
		return 0, fmt.Errorf("%w: doc has no boundary", ErrInvalidPosition)
	}
	return r.path[depth].start - 1, nil
}

// After returns the position immediately after the ancestor at depth.
func (r *ResolvedPos) After(depth int) (int, error) {
	if depth == 0 {
		return 0, fmt.Errorf("%w: doc has no boundary", ErrInvalidPosition)
	}
	return r.End(depth) + 1, nil
}

// AtChildBoundary returns if the position sits exactly between two children
// of Parent (or at the content edges), not inside a text run.
func (r *ResolvedPos) AtChildBoundary() bool {
	level := r.path[len(r.path)-1]
	return level.childStart == level.offset
}

// NodeBefore returns the child ending exactly at the position, or the text
// leaf the position cuts through, or nil at the content start.
func (r *ResolvedPos) NodeBefore() *Node {
	level := r.path[len(r.path)-1]
	if !r.AtChildBoundary() {
		return level.node.Children[level.index]
	}
	if level.index == 0 {
		return nil
	}
	return level.node.Children[level.index-1]
}

// NodeAfter returns the child starting exactly at the position, or the text
// leaf the position cuts through, or nil at the content end.
func (r *ResolvedPos) NodeAfter() *Node {
	level := r.path[len(r.path)-1]
	if level.index >= len(level.node.Children) {
		return nil
	}
	return level.node.Children[level.index]
}

// CanInsertAt reports whether a node of the given type may be inserted at
// pos. The position must resolve to a child boundary of a parent whose
// content rules accept the type. This is the validation gate every
// block-insertion runs through before a transaction is dispatched.
func CanInsertAt(doc *Node, pos int, nt NodeType) bool {
	r, err := Resolve(doc, pos)
	if err != nil {
		return false
	}
	if !r.AtChildBoundary() {
		return false
	}
	return AllowsChild(r.Parent().Type, nt)
}
