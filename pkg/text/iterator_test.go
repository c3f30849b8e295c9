package text_test

import (
	"testing"

	"github.com/md4h/prosedown/pkg/text"
	"github.com/stretchr/testify/assert"
)

func TestLineIterator(t *testing.T) {

	t.Run("Basic", func(t *testing.T) {
		iterator := text.NewLineIteratorFromText("line 1\nline 2\n\nline 3\n")

		line := iterator.Next()
		assert.Equal(t, 1, line.Number)
		assert.Equal(t, "line 1", line.Text)
		assert.False(t, line.IsBlank())

		line = iterator.Next()
		assert.Equal(t, 2, line.Number)
		assert.Equal(t, "line 2", line.Text)

		line = iterator.Next()
		assert.Equal(t, 3, line.Number)
		assert.True(t, line.IsBlank())

		line = iterator.Next()
		assert.Equal(t, "line 3", line.Text)

		// The trailing newline introduces a final empty line
		line = iterator.Next()
		assert.True(t, line.IsBlank())

		assert.False(t, iterator.HasNext())
		// Missing lines are considered like blank lines
		assert.Equal(t, text.MissingLine, iterator.Next())
		assert.True(t, iterator.Next().IsBlank())
	})

	t.Run("Peek", func(t *testing.T) {
		iterator := text.NewLineIteratorFromText("a\nb\nc")

		assert.Equal(t, "a", iterator.Peek().Text)
		assert.Equal(t, "a", iterator.Peek().Text) // Peek does not move
		assert.Equal(t, "b", iterator.PeekAhead(1).Text)
		assert.Equal(t, "c", iterator.PeekAhead(2).Text)
		assert.Equal(t, text.MissingLine, iterator.PeekAhead(3))

		assert.Equal(t, "a", iterator.Next().Text)
		assert.Equal(t, "b", iterator.Peek().Text)
	})

	t.Run("SkipBlankLines", func(t *testing.T) {
		iterator := text.NewLineIteratorFromText("\n\n  \ntext")
		iterator.SkipBlankLines()
		assert.Equal(t, "text", iterator.Peek().Text)

		// Skipping at the end must not loop forever
		iterator.Next()
		iterator.SkipBlankLines()
		assert.False(t, iterator.HasNext())
	})

	t.Run("Indent", func(t *testing.T) {
		iterator := text.NewLineIteratorFromText("    ![a](b.png)\n\tcode")

		line := iterator.Next()
		assert.Equal(t, "    ", line.Indent())

		line = iterator.Next()
		assert.Equal(t, "\t", line.Indent())
	})
}
