package render

import (
	"regexp"
	"strings"

	"github.com/md4h/prosedown/internal/schema"
)

// renderInlineContent serializes textblock children. Marks behave like a
// stack: consecutive nodes sharing a mark prefix keep those delimiters
// open across the boundary, so a link spanning styled fragments closes
// once. Atoms close every open mark, marks never wrap an image or break.
func renderInlineContent(nodes []*schema.Node) string {
	var b strings.Builder
	var open []schema.Mark

	closeTo := func(keep int) {
		for i := len(open) - 1; i >= keep; i-- {
			b.WriteString(markClose(open[i]))
		}
		open = open[:keep]
	}

	for i, n := range nodes {
		switch n.Type {
		case schema.NodeText:
			codeMark, code := findMark(n.Marks, schema.MarkCode)
			auto := isAutolink(n)
			stack := n.Marks
			if code || auto {
				// The innermost delimiter is written with the content.
				stack = n.Marks[:len(n.Marks)-1]
			}
			keep := commonPrefix(open, stack)
			closeTo(keep)
			for _, m := range stack[keep:] {
				b.WriteString(markOpen(m))
				open = append(open, m)
			}
			switch {
			case code:
				writeCodeSpan(&b, n.Text, codeMark.Delim)
			case auto:
				b.WriteString("<" + n.Text + ">")
			default:
				b.WriteString(escapeText(n.Text))
			}
		case schema.NodeImage:
			closeTo(0)
			b.WriteString(n.IndentPrefix)
			b.WriteString(imageSource(n))
		case schema.NodeHardBreak:
			closeTo(0)
			// Between indented images the break is the bare newline, the
			// indentation of the next line already implies it.
			if next := followingNode(nodes, i); next != nil &&
				next.Type == schema.NodeImage && next.IndentPrefix != "" {
				b.WriteString("\n")
			} else {
				b.WriteString("\\\n")
			}
		}
	}
	closeTo(0)
	return b.String()
}

func followingNode(nodes []*schema.Node, i int) *schema.Node {
	if i+1 < len(nodes) {
		return nodes[i+1]
	}
	return nil
}

func findMark(marks []schema.Mark, t schema.MarkType) (schema.Mark, bool) {
	for _, m := range marks {
		if m.Type == t {
			return m, true
		}
	}
	return schema.Mark{}, false
}

// isAutolink reports whether a linked text can use the <url> form: the
// visible text is the destination itself and there is no title.
func isAutolink(n *schema.Node) bool {
	if len(n.Marks) == 0 {
		return false
	}
	last := n.Marks[len(n.Marks)-1]
	return last.Type == schema.MarkLink && last.Href == n.Text && last.Title == ""
}

func commonPrefix(a, b []schema.Mark) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func markOpen(m schema.Mark) string {
	switch m.Type {
	case schema.MarkBold:
		return delimOr(m, "**")
	case schema.MarkItalic:
		return delimOr(m, "*")
	case schema.MarkStrike:
		return "~~"
	case schema.MarkLink:
		return "["
	}
	return ""
}

func markClose(m schema.Mark) string {
	switch m.Type {
	case schema.MarkBold:
		return delimOr(m, "**")
	case schema.MarkItalic:
		return delimOr(m, "*")
	case schema.MarkStrike:
		return "~~"
	case schema.MarkLink:
		return "](" + destination(m.Href) + titleSuffix(m.Title) + ")"
	}
	return ""
}

func delimOr(m schema.Mark, def string) string {
	if m.Delim != "" {
		return m.Delim
	}
	return def
}

func imageSource(n *schema.Node) string {
	return "![" + n.Alt + "](" + destination(n.Src) + titleSuffix(n.Title) + ")"
}

// destination wraps targets that would not survive the bare form, paths
// with spaces in particular, in angle brackets.
func destination(dest string) string {
	if strings.ContainsAny(dest, " \t") || unbalancedParens(dest) {
		return "<" + dest + ">"
	}
	return dest
}

func unbalancedParens(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return true
			}
		}
	}
	return depth != 0
}

func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + title + `"`
}

func writeCodeSpan(b *strings.Builder, content, delim string) {
	if delim == "" {
		delim = safeSpanDelim(content)
	}
	pad := strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") ||
		(strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") &&
			strings.TrimSpace(content) != "")
	b.WriteString(delim)
	if pad {
		b.WriteString(" ")
	}
	b.WriteString(content)
	if pad {
		b.WriteString(" ")
	}
	b.WriteString(delim)
}

func safeSpanDelim(content string) string {
	longest := 0
	run := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", longest+1)
}

/* Escaping */

var autolinkAheadRe = regexp.MustCompile(`^<[a-zA-Z][a-zA-Z0-9+.-]*://[^<>\s]+>`)

// escapeText protects plain text from inline reinterpretation. Backslash,
// backtick, asterisk and brackets are always escaped. Underscores only
// where they could open emphasis (not inside a word, so snake_case stays
// untouched), tildes only when doubled, and < only ahead of what would
// re-tokenize as an autolink.
func escapeText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '`', '*', '[', ']':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '_':
			if i == 0 || !isWordByte(s[i-1]) {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		case '~':
			if i+1 < len(s) && s[i+1] == '~' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		case '<':
			if autolinkAheadRe.MatchString(s[i:]) {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	escHeadingRe  = regexp.MustCompile(`^#{1,6}(?:[ \t]|$)`)
	escBulletRe   = regexp.MustCompile(`^[-*+][ \t]`)
	escOrderedRe  = regexp.MustCompile(`^(\d{1,9})([.)][ \t])`)
	escThematicRe = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	escSetextRe   = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)
	escHTMLRe     = regexp.MustCompile(`^<(?:[a-zA-Z][a-zA-Z0-9-]*(?:[ \t/>]|$)|!--|/[a-zA-Z])`)
)

// escapeBlockStarts keeps paragraph lines from being reread as block
// constructs: a line starting with a list marker, quote arrow or heading
// hash gets a leading escape, and a continuation line that looks like a
// setext underline is defused so the paragraph does not turn into a
// heading on the next parse.
func escapeBlockStarts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = escapeBlockStart(line, i > 0)
	}
	return strings.Join(lines, "\n")
}

func escapeBlockStart(line string, continuation bool) string {
	switch {
	case line == "":
		return line
	case escHeadingRe.MatchString(line):
		return "\\" + line
	case strings.HasPrefix(line, ">"):
		return "\\" + line
	case escThematicRe.MatchString(line):
		return "\\" + line
	case escBulletRe.MatchString(line):
		return "\\" + line
	case escOrderedRe.MatchString(line):
		return escOrderedRe.ReplaceAllString(line, `$1\$2`)
	case escHTMLRe.MatchString(line):
		// Autolinks start with < too but never open an HTML block.
		return "\\" + line
	case continuation && escSetextRe.MatchString(line):
		return "\\" + line
	}
	return line
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
