package text

import (
	"strings"
)

type Line struct {
	Text   string
	Number int
}

// Null Object pattern.
// Useful to check it.Peek().IsBlank() without testing for exhaustion first.
var MissingLine = Line{
	Text:   "",
	Number: -1,
}

func (l Line) IsBlank() bool {
	return IsBlank(l.Text)
}

// Indent returns the exact leading whitespace of the line.
func (l Line) Indent() string {
	return LeadingWhitespace(l.Text)
}

// LineIterator implements the Iterator pattern to iterate over text lines.
type LineIterator struct {
	index int
	lines []Line
}

func (l *LineIterator) HasNext() bool {
	return l.index < len(l.lines)
}

// Same as Next but does not move the iterator
func (l *LineIterator) Peek() Line {
	return l.PeekAhead(0)
}

// PeekAhead returns the line n positions after the current one without moving.
func (l *LineIterator) PeekAhead(n int) Line {
	if l.index+n < len(l.lines) {
		return l.lines[l.index+n]
	}
	return MissingLine
}

func (l *LineIterator) Next() Line {
	if l.HasNext() {
		line := l.lines[l.index]
		l.index++
		return line
	}
	return MissingLine
}

// SkipBlankLines moves the iterator to the next non-blank line.
func (l *LineIterator) SkipBlankLines() {
	for l.HasNext() && l.Peek().IsBlank() {
		l.Next()
	}
}

func NewLineIteratorFromText(text string) *LineIterator {
	rawLines := strings.Split(text, "\n")

	var lines []Line
	for i, line := range rawLines {
		lines = append(lines, Line{
			Number: i + 1,
			Text:   line,
		})
	}

	return &LineIterator{
		index: 0,
		lines: lines,
	}
}
