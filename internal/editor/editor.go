// Package editor implements the caret and edit-intent engine protecting
// atomic image nodes. A caret cannot enter an atom, so the keystrokes around
// one need special handling: Enter must open a paragraph after the enclosing
// block instead of splitting the atom, arrows must step over it, and a single
// stray Backspace must not destroy it. Every interception validates its
// target position first and declines rather than dispatch a transaction that
// could corrupt the tree.
package editor

import (
	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/schema"
)

// Key identifies a keydown the engine may intercept. Values follow the DOM
// KeyboardEvent.key names reported by the webview.
type Key string

const (
	KeyEnter      Key = "Enter"
	KeyBackspace  Key = "Backspace"
	KeyDelete     Key = "Delete"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
)

// Engine holds the per-instance interception state. All of it is scoped to
// one engine so concurrent editors never share arming or focus flags.
type Engine struct {
	doc          *schema.Node
	sel          schema.Selection
	armed        *armedDelete
	overlayFocus bool
}

// armedDelete is the transient first-press state of the two-step image
// delete, keyed by the image position and the key that armed it.
type armedDelete struct {
	pos int
	key Key
}

func NewEngine(doc *schema.Node) *Engine {
	return &Engine{doc: doc, sel: schema.NewCaret(0)}
}

// Doc returns the current document tree.
func (e *Engine) Doc() *schema.Node {
	return e.doc
}

// Selection returns the current selection.
func (e *Engine) Selection() schema.Selection {
	return e.sel
}

// Armed reports whether the next press of the arming key would delete the
// image it selected.
func (e *Engine) Armed() bool {
	return e.armed != nil
}

// SetDoc replaces the document wholesale, clamping the previous selection to
// the new bounds. Used when an external update wins over editor content.
func (e *Engine) SetDoc(doc *schema.Node) {
	e.doc = doc
	e.sel = schema.ClampSelection(e.sel, doc.ContentSize())
	e.disarm()
}

// SetSelection records an externally driven selection change (mouse click,
// programmatic move). Any selection other than the armed image's node
// selection disarms the pending delete.
func (e *Engine) SetSelection(sel schema.Selection) {
	if sel == nil {
		sel = schema.NewCaret(0)
	}
	e.sel = sel
	if e.armed == nil {
		return
	}
	if ns, ok := sel.(*schema.NodeSelection); !ok || ns.Pos != e.armed.pos {
		e.disarm()
	}
}

// SetOverlayFocus flags that an auxiliary control layered over an image (a
// resize handle, a context-menu button) owns the keyboard. While set,
// HandleKey declines everything before any selection logic runs.
func (e *Engine) SetOverlayFocus(focused bool) {
	e.overlayFocus = focused
}

// HandleKey runs one keydown through the engine. The returned bool reports
// whether the engine consumed the event; unhandled keys fall through to the
// editor's default behavior.
func (e *Engine) HandleKey(key Key) bool {
	if e.overlayFocus {
		return false
	}
	switch key {
	case KeyEnter:
		return e.handleEnter()
	case KeyArrowLeft, KeyArrowRight:
		return e.handleArrow(key)
	case KeyBackspace, KeyDelete:
		return e.handleDelete(key)
	}
	e.disarm()
	return false
}

// handleEnter opens an empty paragraph after the block containing the image
// the selection touches. The insertion point is validated before the
// transaction is built; an invalid point declines the event so the default
// Enter behavior runs instead.
func (e *Engine) handleEnter() bool {
	e.disarm()
	at := -1
	if ref := e.selectedImage(); ref != nil {
		at = ref.pos
	} else if before, after := e.imageNeighbors(); before != nil || after != nil {
		at = e.caretPos()
	}
	if at < 0 {
		return false
	}
	r, err := schema.Resolve(e.doc, at)
	if err != nil || r.Depth() == 0 {
		return false
	}
	insert, err := r.After(r.Depth())
	if err != nil || !schema.CanInsertAt(e.doc, insert, schema.NodeParagraph) {
		return false
	}
	doc, sel, err := schema.NewTransaction(e.doc, e.sel).
		InsertAt(insert, schema.NewParagraph()).
		SetSelection(schema.NewCaret(insert + 1)).
		Commit()
	if err != nil {
		return false
	}
	e.doc, e.sel = doc, sel
	return true
}

// handleArrow steps the caret over a selected image instead of letting the
// default behavior re-select a neighboring node.
func (e *Engine) handleArrow(key Key) bool {
	e.disarm()
	ref := e.selectedImage()
	if ref == nil {
		return false
	}
	if key == KeyArrowLeft {
		e.sel = schema.NewCaret(ref.pos)
	} else {
		e.sel = schema.NewCaret(ref.pos + ref.node.NodeSize())
	}
	return true
}

// handleDelete implements the two-step image delete. The first press arms a
// node selection on the image without mutating anything; only an immediately
// consecutive press of the same key while armed deletes it.
func (e *Engine) handleDelete(key Key) bool {
	if ref := e.selectedImage(); ref != nil {
		if e.armed != nil && e.armed.key == key && e.armed.pos == ref.pos {
			return e.deleteImage(ref)
		}
		e.armed = &armedDelete{pos: ref.pos, key: key}
		return true
	}
	e.disarm()
	before, after := e.imageNeighbors()
	target := after
	if key == KeyBackspace {
		target = before
	}
	if target == nil {
		return false
	}
	ns, err := schema.NewNodeSelection(e.doc, target.pos)
	if err != nil {
		return false
	}
	e.sel = ns
	e.armed = &armedDelete{pos: target.pos, key: key}
	return true
}

func (e *Engine) deleteImage(ref *imageRef) bool {
	doc, sel, err := schema.NewTransaction(e.doc, e.sel).
		DeleteNodeAt(ref.pos).
		SetSelection(schema.NewCaret(ref.pos)).
		Commit()
	e.disarm()
	if err != nil {
		return false
	}
	e.doc, e.sel = doc, sel
	return true
}

// RefreshAlerts re-runs alert promotion so a blockquote whose first line
// gained a marker through editing becomes the alert it now spells. Promotion
// is suppressed while the caret sits inside a blockquote: reclassifying
// mid-keystroke would yank the paragraph out from under the selection.
func (e *Engine) RefreshAlerts() bool {
	if e.selectionInsideBlockquote() {
		return false
	}
	promoted := parser.PromoteAlerts(e.doc)
	if promoted == e.doc {
		return false
	}
	e.doc = promoted
	e.sel = schema.ClampSelection(e.sel, promoted.ContentSize())
	e.disarm()
	return true
}

func (e *Engine) selectionInsideBlockquote() bool {
	r, err := schema.Resolve(e.doc, e.sel.From())
	if err != nil {
		return false
	}
	for d := 0; d <= r.Depth(); d++ {
		if r.Node(d).Type == schema.NodeBlockquote {
			return true
		}
	}
	return false
}

func (e *Engine) disarm() {
	e.armed = nil
}

/* Selection classification */

// imageRef points at an image node by the absolute position of its single
// token.
type imageRef struct {
	pos  int
	node *schema.Node
}

func (e *Engine) selectedImage() *imageRef {
	ns, ok := e.sel.(*schema.NodeSelection)
	if !ok || ns.Node.Type != schema.NodeImage {
		return nil
	}
	return &imageRef{pos: ns.Pos, node: ns.Node}
}

// caretPos returns the position of a collapsed caret or gap cursor, or -1
// when the selection has no single adjacency point.
func (e *Engine) caretPos() int {
	switch s := e.sel.(type) {
	case *schema.TextSelection:
		if s.Empty() {
			return s.Head
		}
	case *schema.GapCursor:
		return s.Pos
	}
	return -1
}

// imageNeighbors returns the images whose token ends (before) or starts
// (after) exactly at the caret.
func (e *Engine) imageNeighbors() (before, after *imageRef) {
	pos := e.caretPos()
	if pos < 0 {
		return nil, nil
	}
	r, err := schema.Resolve(e.doc, pos)
	if err != nil {
		return nil, nil
	}
	if n := r.NodeBefore(); n != nil && n.Type == schema.NodeImage {
		before = &imageRef{pos: pos - n.NodeSize(), node: n}
	}
	if n := r.NodeAfter(); n != nil && n.Type == schema.NodeImage && r.AtChildBoundary() {
		after = &imageRef{pos: pos, node: n}
	}
	return before, after
}
