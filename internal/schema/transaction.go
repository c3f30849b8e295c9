package schema

import (
	"errors"
	"fmt"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction accumulates edits against a private clone of the document.
// Steps are chainable; the first failing step poisons the transaction and
// every later step is a no-op. Commit either returns the fully edited tree
// or an error with the original document untouched, never a mix.
//
// The chaining-with-sticky-error style mirrors how document transformers
// are composed elsewhere in this codebase.
type Transaction struct {
	doc   *Node
	sel   Selection
	err   error
	steps []stepMap
}

// stepMap remembers how one step displaced positions, so positions computed
// against the pre-step document can be re-mapped.
type stepMap struct {
	at      int // first affected position
	removed int
	added   int
}

func NewTransaction(doc *Node, sel Selection) *Transaction {
	return &Transaction{doc: doc.Clone(), sel: sel}
}

func (tr *Transaction) Err() error {
	return tr.err
}

// Doc exposes the working tree, for validations between steps.
func (tr *Transaction) Doc() *Node {
	return tr.doc
}

// InsertAt inserts a node at a child boundary. The position must validate
// against the content rules; a rejected insertion poisons the transaction.
func (tr *Transaction) InsertAt(pos int, n *Node) *Transaction {
	if tr.err != nil {
		return tr
	}
	r, err := Resolve(tr.doc, pos)
	if err != nil {
		tr.err = err
		return tr
	}
	if !r.AtChildBoundary() || !AllowsChild(r.Parent().Type, n.Type) {
		tr.err = fmt.Errorf("%w: cannot insert %s at %d", ErrInvalidTransaction, n.Type, pos)
		return tr
	}
	parent := r.Parent()
	index := r.Index()
	children := make([]*Node, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:index]...)
	children = append(children, n)
	children = append(children, parent.Children[index:]...)
	parent.Children = children

	tr.steps = append(tr.steps, stepMap{at: pos, added: n.NodeSize()})
	return tr
}

// SplitTextAt splits the text leaf a position cuts through, so the
// position becomes a child boundary. A text run's size is its rune count
// however it is sliced, so no position moves and no step map is recorded.
// A position already on a boundary is left alone.
func (tr *Transaction) SplitTextAt(pos int) *Transaction {
	if tr.err != nil {
		return tr
	}
	r, err := Resolve(tr.doc, pos)
	if err != nil {
		tr.err = err
		return tr
	}
	if r.AtChildBoundary() {
		return tr
	}
	parent := r.Parent()
	index := r.Index()
	leaf := parent.Children[index]
	if leaf.Type != NodeText {
		tr.err = fmt.Errorf("%w: cannot split %s at %d", ErrInvalidTransaction, leaf.Type, pos)
		return tr
	}
	level := r.path[len(r.path)-1]
	runes := []rune(leaf.Text)
	cut := level.offset - level.childStart
	children := make([]*Node, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:index]...)
	children = append(children,
		NewText(string(runes[:cut]), leaf.Marks...),
		NewText(string(runes[cut:]), leaf.Marks...))
	children = append(children, parent.Children[index+1:]...)
	parent.Children = children
	return tr
}

// DeleteNodeAt removes the child starting exactly at pos.
func (tr *Transaction) DeleteNodeAt(pos int) *Transaction {
	if tr.err != nil {
		return tr
	}
	r, err := Resolve(tr.doc, pos)
	if err != nil {
		tr.err = err
		return tr
	}
	if !r.AtChildBoundary() || r.NodeAfter() == nil {
		tr.err = fmt.Errorf("%w: no node starts at %d", ErrInvalidTransaction, pos)
		return tr
	}
	parent := r.Parent()
	index := r.Index()
	removed := parent.Children[index]
	parent.Children = append(parent.Children[:index], parent.Children[index+1:]...)

	tr.steps = append(tr.steps, stepMap{at: pos, removed: removed.NodeSize()})
	return tr
}

// SetSelection records the selection to restore after the edits. The
// position is taken against the post-step document.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	if tr.err != nil {
		return tr
	}
	tr.sel = sel
	return tr
}

// MapPos re-maps a position computed before the transaction's steps.
func (tr *Transaction) MapPos(pos int) int {
	for _, step := range tr.steps {
		if pos < step.at {
			continue
		}
		if step.removed > 0 && pos < step.at+step.removed {
			pos = step.at
			continue
		}
		pos += step.added - step.removed
	}
	return pos
}

// Commit returns the edited document and final selection, or the error of
// the first failed step. On error the caller's document is untouched.
func (tr *Transaction) Commit() (*Node, Selection, error) {
	if tr.err != nil {
		return nil, nil, tr.err
	}
	sel := tr.sel
	if sel == nil {
		sel = NewCaret(0)
	}
	sel = ClampSelection(sel, tr.doc.ContentSize())
	return tr.doc, sel, nil
}
