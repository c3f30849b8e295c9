package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md4h/prosedown/internal/editor"
	"github.com/md4h/prosedown/internal/schema"
)

// imageDoc builds a single paragraph with an image between two text runs.
// The image token sits at position 8, the caret positions 8 and 9 touch it.
func imageDoc() *schema.Node {
	return schema.NewDoc(
		schema.NewParagraph(
			schema.NewText("before "),
			schema.NewImage("pic.png", "pic"),
			schema.NewText(" after"),
		),
	)
}

func TestTwoStepDelete(t *testing.T) {
	doc := imageDoc()
	e := editor.NewEngine(doc)
	e.SetSelection(schema.NewCaret(9))

	// First press arms a node selection without touching the document.
	require.True(t, e.HandleKey(editor.KeyBackspace))
	assert.True(t, e.Armed())
	assert.Same(t, doc, e.Doc())
	ns, ok := e.Selection().(*schema.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, 8, ns.Pos)
	assert.Equal(t, schema.NodeImage, ns.Node.Type)

	// Second press of the same key deletes the image.
	require.True(t, e.HandleKey(editor.KeyBackspace))
	assert.False(t, e.Armed())
	para := e.Doc().Children[0]
	require.Len(t, para.Children, 2)
	assert.Equal(t, "before ", para.Children[0].Text)
	assert.Equal(t, " after", para.Children[1].Text)
	assert.Equal(t, 8, e.Selection().From())
	assert.True(t, e.Selection().Empty())
}

func TestTwoStepDeleteDisarmedByOtherKey(t *testing.T) {
	doc := imageDoc()
	e := editor.NewEngine(doc)
	e.SetSelection(schema.NewCaret(9))

	require.True(t, e.HandleKey(editor.KeyBackspace))
	assert.False(t, e.HandleKey(editor.Key("a")))
	assert.False(t, e.Armed())
	assert.Same(t, doc, e.Doc())

	// The next press arms again instead of deleting.
	require.True(t, e.HandleKey(editor.KeyBackspace))
	assert.True(t, e.Armed())
	assert.Same(t, doc, e.Doc())
}

func TestTwoStepDeleteDisarmedBySelectionChange(t *testing.T) {
	doc := imageDoc()
	e := editor.NewEngine(doc)
	e.SetSelection(schema.NewCaret(9))

	require.True(t, e.HandleKey(editor.KeyBackspace))
	e.SetSelection(schema.NewCaret(3))
	assert.False(t, e.Armed())

	// Away from the image the key falls through to default handling.
	assert.False(t, e.HandleKey(editor.KeyBackspace))
	assert.Same(t, doc, e.Doc())
}

func TestDeleteKeyTargetsFollowingImage(t *testing.T) {
	e := editor.NewEngine(imageDoc())
	e.SetSelection(schema.NewCaret(8))

	require.True(t, e.HandleKey(editor.KeyDelete))
	assert.True(t, e.Armed())
	ns, ok := e.Selection().(*schema.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, 8, ns.Pos)

	require.True(t, e.HandleKey(editor.KeyDelete))
	require.Len(t, e.Doc().Children[0].Children, 2)
}

func TestDeleteKeySwitchRearms(t *testing.T) {
	e := editor.NewEngine(imageDoc())
	e.SetSelection(schema.NewCaret(9))

	require.True(t, e.HandleKey(editor.KeyBackspace))

	// Switching to the other delete key re-arms instead of deleting.
	require.True(t, e.HandleKey(editor.KeyDelete))
	assert.True(t, e.Armed())
	require.Len(t, e.Doc().Children[0].Children, 3)

	require.True(t, e.HandleKey(editor.KeyDelete))
	require.Len(t, e.Doc().Children[0].Children, 2)
}

func TestDeleteAwayFromImageUnhandled(t *testing.T) {
	e := editor.NewEngine(imageDoc())

	// Inside a text run.
	e.SetSelection(schema.NewCaret(3))
	assert.False(t, e.HandleKey(editor.KeyBackspace))
	assert.False(t, e.HandleKey(editor.KeyDelete))

	// After the image, Delete looks forward and finds text.
	e.SetSelection(schema.NewCaret(9))
	assert.False(t, e.HandleKey(editor.KeyDelete))
	assert.False(t, e.Armed())
}

func TestEnterOpensParagraphAfterBlock(t *testing.T) {
	var tests = []struct {
		name string
		sel  func(t *testing.T, doc *schema.Node) schema.Selection
	}{
		{
			name: "ImageSelected",
			sel: func(t *testing.T, doc *schema.Node) schema.Selection {
				ns, err := schema.NewNodeSelection(doc, 8)
				require.NoError(t, err)
				return ns
			},
		},
		{
			name: "CaretBeforeImage",
			sel: func(t *testing.T, doc *schema.Node) schema.Selection {
				return schema.NewCaret(8)
			},
		},
		{
			name: "CaretAfterImage",
			sel: func(t *testing.T, doc *schema.Node) schema.Selection {
				return schema.NewCaret(9)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := imageDoc()
			e := editor.NewEngine(doc)
			e.SetSelection(tt.sel(t, doc))

			require.True(t, e.HandleKey(editor.KeyEnter))

			next := e.Doc()
			require.Len(t, next.Children, 2)
			assert.Equal(t, schema.NodeParagraph, next.Children[1].Type)
			assert.Empty(t, next.Children[1].Children)
			assert.Equal(t, 17, e.Selection().From())
		})
	}
}

func TestEnterAwayFromImageUnhandled(t *testing.T) {
	e := editor.NewEngine(imageDoc())
	e.SetSelection(schema.NewCaret(3))

	assert.False(t, e.HandleKey(editor.KeyEnter))
	require.Len(t, e.Doc().Children, 1)
}

func TestEnterDeclinesInvalidInsertion(t *testing.T) {
	// A paragraph sitting directly inside a list is not a structure Enter
	// can extend; the engine must decline instead of dispatching.
	doc := schema.NewDoc(
		schema.NewOrderedList(1, ".",
			schema.NewParagraph(schema.NewImage("x.png", "x")),
		),
	)
	e := editor.NewEngine(doc)
	ns, err := schema.NewNodeSelection(doc, 2)
	require.NoError(t, err)
	e.SetSelection(ns)

	assert.False(t, e.HandleKey(editor.KeyEnter))
	assert.Same(t, doc, e.Doc())
}

func TestArrowsStepOverSelectedImage(t *testing.T) {
	doc := imageDoc()
	e := editor.NewEngine(doc)

	ns, err := schema.NewNodeSelection(doc, 8)
	require.NoError(t, err)

	e.SetSelection(ns)
	require.True(t, e.HandleKey(editor.KeyArrowLeft))
	assert.Equal(t, 8, e.Selection().From())
	assert.True(t, e.Selection().Empty())

	e.SetSelection(ns)
	require.True(t, e.HandleKey(editor.KeyArrowRight))
	assert.Equal(t, 9, e.Selection().From())

	// With a plain text caret the arrows are not intercepted.
	e.SetSelection(schema.NewCaret(3))
	assert.False(t, e.HandleKey(editor.KeyArrowLeft))
	assert.False(t, e.HandleKey(editor.KeyArrowRight))
}

func TestOverlayFocusBypassesEngine(t *testing.T) {
	e := editor.NewEngine(imageDoc())
	e.SetSelection(schema.NewCaret(9))

	e.SetOverlayFocus(true)
	assert.False(t, e.HandleKey(editor.KeyBackspace))
	assert.False(t, e.Armed())

	e.SetOverlayFocus(false)
	assert.True(t, e.HandleKey(editor.KeyBackspace))
	assert.True(t, e.Armed())
}

func TestSetDocClampsSelection(t *testing.T) {
	e := editor.NewEngine(imageDoc())
	e.SetSelection(schema.NewCaret(9))
	require.True(t, e.HandleKey(editor.KeyBackspace))

	short := schema.NewDoc(schema.NewParagraph(schema.NewText("hi")))
	e.SetDoc(short)

	assert.False(t, e.Armed())
	assert.LessOrEqual(t, e.Selection().To(), short.ContentSize())
}

func TestRefreshAlerts(t *testing.T) {
	quoted := func() *schema.Node {
		return schema.NewDoc(
			schema.NewParagraph(schema.NewText("intro")),
			schema.NewBlockquote(
				schema.NewParagraph(schema.NewText("[!NOTE]\nHeads up")),
			),
		)
	}

	t.Run("Promotes a completed marker", func(t *testing.T) {
		e := editor.NewEngine(quoted())
		e.SetSelection(schema.NewCaret(2))

		require.True(t, e.RefreshAlerts())
		alert := e.Doc().Children[1]
		assert.Equal(t, schema.NodeGithubAlert, alert.Type)
		assert.Equal(t, schema.AlertNote, alert.Alert)
		assert.Equal(t, "Heads up", alert.TextContent())
	})

	t.Run("Suppressed while typing inside the quote", func(t *testing.T) {
		doc := quoted()
		e := editor.NewEngine(doc)
		e.SetSelection(schema.NewCaret(12))

		assert.False(t, e.RefreshAlerts())
		assert.Same(t, doc, e.Doc())
		assert.Equal(t, schema.NodeBlockquote, e.Doc().Children[1].Type)
	})

	t.Run("No marker means no churn", func(t *testing.T) {
		doc := schema.NewDoc(
			schema.NewBlockquote(schema.NewParagraph(schema.NewText("plain quote"))),
		)
		e := editor.NewEngine(doc)
		e.SetSelection(schema.NewCaret(0))

		assert.False(t, e.RefreshAlerts())
		assert.Same(t, doc, e.Doc())
	})
}
