package editor

// Decoration classes the webview styles around an image the caret touches.
const (
	DecorationCaretBefore = "image-caret-before"
	DecorationCaretAfter  = "image-caret-after"
)

// Decoration marks an inline range with a CSS class. From and To always span
// the decorated node's full extent.
type Decoration struct {
	From  int
	To    int
	Class string
}

// Decorations computes the caret-adjacency markers for the current
// selection. They are a visual affordance only; a caret between two images
// yields one marker per side.
func (e *Engine) Decorations() []Decoration {
	var decos []Decoration
	before, after := e.imageNeighbors()
	if before != nil {
		decos = append(decos, Decoration{
			From:  before.pos,
			To:    before.pos + before.node.NodeSize(),
			Class: DecorationCaretAfter,
		})
	}
	if after != nil {
		decos = append(decos, Decoration{
			From:  after.pos,
			To:    after.pos + after.node.NodeSize(),
			Class: DecorationCaretBefore,
		})
	}
	return decos
}
