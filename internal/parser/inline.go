package parser

import (
	"regexp"
	"strings"

	"github.com/md4h/prosedown/internal/schema"
)

var (
	autolinkRe  = regexp.MustCompile(`^<[a-zA-Z][a-zA-Z0-9+.-]*://[^<>\s]+>`)
	linkTitleRe = regexp.MustCompile(`[ \t]+"([^"]*)"$`)
)

// parseInline scans a paragraph run into text leaves and atoms. Marks
// accumulate outermost-first as the scan recurses into nested spans, so a
// bolded link letter carries [bold, link] in that order.
func parseInline(src string) []*schema.Node {
	return scanInline(src, nil)
}

// parseParagraphInlines assembles the inline content of a paragraph from
// its source lines. Soft breaks stay as newlines inside text leaves; a
// trailing backslash or two trailing spaces become a hardBreak atom.
func parseParagraphInlines(lines []string) []*schema.Node {
	var inlines []*schema.Node
	var run []string
	flush := func() {
		if len(run) > 0 {
			inlines = append(inlines, parseInline(strings.Join(run, "\n"))...)
			run = nil
		}
	}
	for _, line := range lines {
		trimmed, hard := splitHardBreak(line)
		run = append(run, trimmed)
		if hard {
			flush()
			inlines = append(inlines, schema.NewHardBreak())
		}
	}
	flush()
	return inlines
}

func splitHardBreak(line string) (string, bool) {
	backslashes := 0
	for backslashes < len(line) && line[len(line)-1-backslashes] == '\\' {
		backslashes++
	}
	if backslashes%2 == 1 {
		return line[:len(line)-1], true
	}
	trimmed := strings.TrimRight(line, " ")
	if len(line)-len(trimmed) >= 2 {
		return trimmed, true
	}
	return trimmed, false
}

func scanInline(src string, active []schema.Mark) []*schema.Node {
	var nodes []*schema.Node
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			nodes = append(nodes, schema.NewText(buf.String(), marksWith(active)...))
			buf.Reset()
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '\\':
			if i+1 < len(src) && isPunct(src[i+1]) {
				buf.WriteByte(src[i+1])
				i += 2
			} else {
				buf.WriteByte('\\')
				i++
			}
		case '`':
			run := countRun(src, i, '`')
			end := findCodeClose(src, i+run, run)
			if end < 0 {
				buf.WriteString(src[i : i+run])
				i += run
				continue
			}
			content := src[i+run : end]
			if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' &&
				strings.TrimSpace(content) != "" {
				content = content[1 : len(content)-1]
			}
			flush()
			mark := schema.Mark{Type: schema.MarkCode, Delim: src[i : i+run]}
			nodes = append(nodes, schema.NewText(content, marksWith(active, mark)...))
			i = end + run
		case '!':
			if img, consumed := scanImage(src, i); img != nil {
				flush()
				nodes = append(nodes, img)
				i += consumed
				continue
			}
			buf.WriteByte(c)
			i++
		case '[':
			if linked, consumed := scanLink(src, i, active); consumed > 0 {
				flush()
				nodes = append(nodes, linked...)
				i += consumed
				continue
			}
			buf.WriteByte(c)
			i++
		case '*', '_', '~':
			if styled, consumed := tryEmphasis(src, i, active); consumed > 0 {
				flush()
				nodes = append(nodes, styled...)
				i += consumed
				continue
			}
			buf.WriteByte(c)
			i++
		case '<':
			if m := autolinkRe.FindString(src[i:]); m != "" {
				url := m[1 : len(m)-1]
				flush()
				mark := schema.Mark{Type: schema.MarkLink, Href: url}
				nodes = append(nodes, schema.NewText(url, marksWith(active, mark)...))
				i += len(m)
				continue
			}
			buf.WriteByte(c)
			i++
		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()
	return nodes
}

// tryEmphasis resolves *, _ and ~~ spans. Runs of three try the combined
// bold+italic reading first, then fall back to narrower widths. A span
// whose content starts or ends with whitespace stays literal, and an
// underscore glued to a word character never opens a span.
func tryEmphasis(src string, i int, active []schema.Mark) ([]*schema.Node, int) {
	c := src[i]
	run := countRun(src, i, c)
	if c == '~' && run < 2 {
		return nil, 0
	}
	if c == '_' && i > 0 && isWordByte(src[i-1]) {
		return nil, 0
	}

	var widths []int
	switch {
	case c == '~':
		widths = []int{2}
	case run >= 3:
		widths = []int{3, 2, 1}
	case run == 2:
		widths = []int{2, 1}
	default:
		widths = []int{1}
	}

	for _, w := range widths {
		delim := strings.Repeat(string(c), w)
		rel := indexUnescaped(src[i+w:], delim)
		if rel <= 0 {
			continue
		}
		content := src[i+w : i+w+rel]
		if startsOrEndsWithSpace(content) {
			continue
		}
		var marks []schema.Mark
		switch {
		case c == '~':
			marks = marksWith(active, schema.Mark{Type: schema.MarkStrike, Delim: "~~"})
		case w == 3:
			marks = marksWith(active,
				schema.Mark{Type: schema.MarkBold, Delim: strings.Repeat(string(c), 2)},
				schema.Mark{Type: schema.MarkItalic, Delim: string(c)})
		case w == 2:
			marks = marksWith(active, schema.Mark{Type: schema.MarkBold, Delim: delim})
		default:
			marks = marksWith(active, schema.Mark{Type: schema.MarkItalic, Delim: delim})
		}
		return scanInline(content, marks), w + rel + w
	}
	return nil, 0
}

// scanImage reads ![alt](target) at position i. The alt text is kept as
// raw bytes, and the target accepts both the angle-bracket form and a bare
// path, including bare paths with spaces, with an optional quoted title.
func scanImage(src string, i int) (*schema.Node, int) {
	if i+1 >= len(src) || src[i] != '!' || src[i+1] != '[' {
		return nil, 0
	}
	alt, j, ok := scanBracketed(src, i+1)
	if !ok {
		return nil, 0
	}
	dest, title, end, ok := scanTarget(src, j)
	if !ok {
		return nil, 0
	}
	img := schema.NewImage(dest, alt)
	img.Title = title
	return img, end - i
}

// parseSoleImage parses a line that consists of exactly one image
// reference and nothing else. Used for the indented-image rule.
func parseSoleImage(s string) *schema.Node {
	img, consumed := scanImage(s, 0)
	if img == nil || consumed != len(s) {
		return nil
	}
	return img
}

func scanLink(src string, i int, active []schema.Mark) ([]*schema.Node, int) {
	label, j, ok := scanBracketed(src, i)
	if !ok || label == "" {
		return nil, 0
	}
	dest, title, end, ok := scanTarget(src, j)
	if !ok {
		return nil, 0
	}
	mark := schema.Mark{Type: schema.MarkLink, Href: dest, Title: title}
	return scanInline(label, marksWith(active, mark)), end - i
}

func scanBracketed(src string, j int) (string, int, bool) {
	for k := j + 1; k < len(src); k++ {
		switch src[k] {
		case '\\':
			k++
		case ']':
			return src[j+1 : k], k + 1, true
		}
	}
	return "", 0, false
}

func scanTarget(src string, j int) (dest, title string, end int, ok bool) {
	if j >= len(src) || src[j] != '(' {
		return "", "", 0, false
	}
	k := j + 1

	if k < len(src) && src[k] == '<' {
		rel := strings.IndexByte(src[k+1:], '>')
		if rel < 0 {
			return "", "", 0, false
		}
		dest = src[k+1 : k+1+rel]
		k += rel + 2
		k = skipSpaces(src, k)
		if k < len(src) && src[k] == '"' {
			q := strings.IndexByte(src[k+1:], '"')
			if q < 0 {
				return "", "", 0, false
			}
			title = src[k+1 : k+1+q]
			k = skipSpaces(src, k+q+2)
		}
		if k >= len(src) || src[k] != ')' {
			return "", "", 0, false
		}
		return dest, title, k + 1, true
	}

	depth := 0
	closing := -1
	for x := k; x < len(src); x++ {
		switch src[x] {
		case '\\':
			x++
		case '\n':
			return "", "", 0, false
		case '(':
			depth++
		case ')':
			if depth == 0 {
				closing = x
			} else {
				depth--
			}
		}
		if closing >= 0 {
			break
		}
	}
	if closing < 0 {
		return "", "", 0, false
	}
	raw := src[k:closing]
	if m := linkTitleRe.FindStringSubmatch(raw); m != nil {
		dest = strings.TrimSpace(raw[:len(raw)-len(m[0])])
		title = m[1]
	} else {
		dest = strings.TrimSpace(raw)
	}
	return dest, title, closing + 1, true
}

/* Helpers */

func marksWith(active []schema.Mark, extra ...schema.Mark) []schema.Mark {
	if len(active)+len(extra) == 0 {
		return nil
	}
	out := make([]schema.Mark, 0, len(active)+len(extra))
	out = append(out, active...)
	return append(out, extra...)
}

func countRun(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// findCodeClose locates a backtick run of exactly width, per the code span
// matching rule. Longer runs do not close a shorter opener.
func findCodeClose(s string, from, width int) int {
	for j := from; j < len(s); j++ {
		if s[j] == '`' {
			run := countRun(s, j, '`')
			if run == width {
				return j
			}
			j += run - 1
		}
	}
	return -1
}

// indexUnescaped finds delim outside escapes and code spans.
func indexUnescaped(s, delim string) int {
	for x := 0; x+len(delim) <= len(s); x++ {
		switch s[x] {
		case '\\':
			x++
		case '`':
			run := countRun(s, x, '`')
			if end := findCodeClose(s, x+run, run); end >= 0 {
				x = end + run - 1
			} else {
				x += run - 1
			}
		default:
			if strings.HasPrefix(s[x:], delim) {
				return x
			}
		}
	}
	return -1
}

func startsOrEndsWithSpace(s string) bool {
	return strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") ||
		strings.HasPrefix(s, "\n") || strings.HasSuffix(s, "\n")
}

func skipSpaces(s string, k int) int {
	for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
		k++
	}
	return k
}

func isPunct(b byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", b) >= 0
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
