package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/pkg/text"
)

var (
	fenceRe         = regexp.MustCompile("^ {0,3}(`{3,})[ \t]*(.*)$")
	atxRe           = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	closingHashesRe = regexp.MustCompile(`[ \t]+#+$`)
	thematicRe      = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	setextRe        = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)
	quoteRe         = regexp.MustCompile(`^ {0,3}> ?(.*)$`)
	orderedMarkerRe = regexp.MustCompile(`^( {0,3})(\d{1,9})([.)])([ \t]+)(.*)$`)
	bulletMarkerRe  = regexp.MustCompile(`^( {0,3})([-*+])([ \t]+)(.*)$`)
	tableDelimRe    = regexp.MustCompile(`^[ \t:|-]+$`)
	htmlOpenRe      = regexp.MustCompile(`^ {0,3}<(?:[a-zA-Z][a-zA-Z0-9-]*(?:[ \t/>]|$)|!--|/[a-zA-Z])`)
)

// parseFencedBlock handles backtick fences. A fence is opaque: whatever it
// contains is never reinterpreted by the other handlers, which is why this
// handler runs first. A fence tagged mermaid becomes a diagram node.
func parseFencedBlock(p *parser) []*schema.Node {
	m := fenceRe.FindStringSubmatch(p.it.Peek().Text)
	if m == nil {
		return nil
	}
	p.it.Next()
	fence := m[1]
	info := strings.TrimSpace(m[2])

	var body []string
	for p.it.HasNext() {
		line := p.it.Next()
		trimmed := strings.TrimSpace(line.Text)
		if len(trimmed) >= len(fence) && strings.Trim(trimmed, "`") == "" {
			break
		}
		body = append(body, line.Text)
	}
	// An unterminated fence swallows the rest of the input, like CommonMark.

	literal := strings.Join(body, "\n")
	if strings.EqualFold(firstWord(info), "mermaid") {
		return []*schema.Node{schema.NewMermaid(literal)}
	}
	return []*schema.Node{schema.NewCodeBlock(info, literal, true)}
}

// parseIndentedBlock owns the indented-image disambiguation. The generic
// Markdown rule makes any 4-column indentation a code block, but authors
// indent images to center them visually. A run of indented lines parses as
// images only when every single line is exactly one image reference; each
// image keeps its own leading whitespace verbatim in IndentPrefix so
// serialization reproduces the original bytes. Anything else in the run
// falls through to a literal indented code block.
func parseIndentedBlock(p *parser) []*schema.Node {
	line := p.it.Peek()
	if line.IsBlank() || text.IndentColumns(line.Text) < 4 {
		return nil
	}

	var lines []text.Line
	for p.it.HasNext() && !p.it.Peek().IsBlank() && text.IndentColumns(p.it.Peek().Text) >= 4 {
		lines = append(lines, p.it.Next())
	}

	images := make([]*schema.Node, 0, len(lines))
	for _, l := range lines {
		img := parseSoleImage(strings.TrimSpace(l.Text))
		if img == nil {
			images = nil
			break
		}
		img.IndentPrefix = l.Indent()
		images = append(images, img)
	}

	if images != nil {
		var inlines []*schema.Node
		for i, img := range images {
			if i > 0 {
				inlines = append(inlines, schema.NewHardBreak())
			}
			inlines = append(inlines, img)
		}
		return []*schema.Node{schema.NewParagraph(inlines...)}
	}

	var raw []string
	for _, l := range lines {
		raw = append(raw, l.Text)
	}
	// Indented code keeps its exact bytes, indentation included, so mixed
	// tab/space indents survive the round-trip untouched.
	return []*schema.Node{schema.NewCodeBlock("", strings.Join(raw, "\n"), false)}
}

// parseBlockquote collects > lines, parses their content recursively and
// reclassifies the quote as a GitHub alert when the first line is an alert
// marker.
func parseBlockquote(p *parser) []*schema.Node {
	if quoteRe.FindStringSubmatch(p.it.Peek().Text) == nil {
		return nil
	}

	var inner []string
	for p.it.HasNext() {
		m := quoteRe.FindStringSubmatch(p.it.Peek().Text)
		if m == nil {
			break
		}
		p.it.Next()
		inner = append(inner, m[1])
	}

	children := parseBlocks(strings.Join(inner, "\n"))
	if alert := alertFromBlocks(children); alert != nil {
		return []*schema.Node{alert}
	}
	return []*schema.Node{schema.NewBlockquote(children...)}
}

func parseATXHeading(p *parser) []*schema.Node {
	m := atxRe.FindStringSubmatch(p.it.Peek().Text)
	if m == nil {
		return nil
	}
	p.it.Next()
	level := len(m[1])
	content := closingHashesRe.ReplaceAllString(strings.TrimSpace(m[2]), "")
	return []*schema.Node{schema.NewHeading(level, parseInline(content)...)}
}

func parseThematicBreak(p *parser) []*schema.Node {
	if !thematicRe.MatchString(p.it.Peek().Text) {
		return nil
	}
	p.it.Next()
	return []*schema.Node{schema.NewHorizontalRule()}
}

// parseList handles ordered and bullet lists. The first marker fixes the
// list's identity: its number becomes the start attribute (5. resumes at
// five) and its delimiter style (. or )) and bullet character must repeat
// on every item, a switch starts a sibling list. Item content is parsed
// recursively after dedenting, so items nest lists and any other block.
func parseList(p *parser) []*schema.Node {
	first := p.it.Peek().Text
	om := orderedMarkerRe.FindStringSubmatch(first)
	bm := bulletMarkerRe.FindStringSubmatch(first)
	if om == nil && bm == nil {
		return nil
	}

	ordered := om != nil
	var list *schema.Node
	if ordered {
		start, _ := strconv.Atoi(om[2])
		list = schema.NewOrderedList(start, om[3])
	} else {
		list = schema.NewBulletList(bm[2])
	}

	for p.it.HasNext() {
		// A blank gap before the next marker keeps the list going but
		// makes it loose.
		gap := 0
		for p.it.PeekAhead(gap) != text.MissingLine && p.it.PeekAhead(gap).IsBlank() {
			gap++
		}
		candidate := p.it.PeekAhead(gap)
		if candidate == text.MissingLine {
			break
		}

		var m []string
		if ordered {
			m = orderedMarkerRe.FindStringSubmatch(candidate.Text)
			if m == nil || m[3] != list.Delim {
				break
			}
		} else {
			m = bulletMarkerRe.FindStringSubmatch(candidate.Text)
			if m == nil || m[2] != list.Bullet {
				break
			}
		}

		if gap > 0 {
			list.Tight = false
			for i := 0; i < gap; i++ {
				p.it.Next()
			}
		}
		p.it.Next()

		var contentIndent int
		var rest string
		if ordered {
			contentIndent = len(m[1]) + len(m[2]) + 1 + len(m[4])
			rest = m[5]
		} else {
			contentIndent = len(m[1]) + 1 + len(m[3])
			rest = m[4]
		}

		itemLines := []string{rest}
		for p.it.HasNext() {
			next := p.it.Peek()
			if next.IsBlank() {
				// Blank inside an item: only continue when more indented
				// content follows, otherwise the item (or list) ends here.
				ahead := 1
				for p.it.PeekAhead(ahead) != text.MissingLine && p.it.PeekAhead(ahead).IsBlank() {
					ahead++
				}
				follow := p.it.PeekAhead(ahead)
				if follow == text.MissingLine || text.IndentColumns(follow.Text) < contentIndent {
					break
				}
				list.Tight = false
				for i := 0; i < ahead; i++ {
					p.it.Next()
					itemLines = append(itemLines, "")
				}
				continue
			}
			if text.IndentColumns(next.Text) < contentIndent {
				break
			}
			p.it.Next()
			itemLines = append(itemLines, dedentColumns(next.Text, contentIndent))
		}

		item := schema.NewListItem(parseBlocks(strings.Join(itemLines, "\n"))...)
		list.Children = append(list.Children, item)
	}

	return []*schema.Node{list}
}

// parseTable captures a pipe table verbatim. Tables are not editable
// structures in this schema; keeping their exact source guarantees they
// never churn on save.
func parseTable(p *parser) []*schema.Node {
	header := p.it.Peek()
	if !strings.Contains(header.Text, "|") {
		return nil
	}
	delim := p.it.PeekAhead(1)
	if delim == text.MissingLine ||
		!strings.Contains(delim.Text, "|") ||
		!strings.Contains(delim.Text, "-") ||
		!tableDelimRe.MatchString(delim.Text) {
		return nil
	}

	rows := []string{p.it.Next().Text, p.it.Next().Text}
	for p.it.HasNext() && !p.it.Peek().IsBlank() && strings.Contains(p.it.Peek().Text, "|") {
		rows = append(rows, p.it.Next().Text)
	}
	return []*schema.Node{schema.NewTable(strings.Join(rows, "\n"))}
}

// parseHTMLBlock captures raw HTML verbatim until a blank line.
func parseHTMLBlock(p *parser) []*schema.Node {
	if !htmlOpenRe.MatchString(p.it.Peek().Text) {
		return nil
	}
	var lines []string
	for p.it.HasNext() && !p.it.Peek().IsBlank() {
		lines = append(lines, p.it.Next().Text)
	}
	return []*schema.Node{schema.NewHTMLBlock(strings.Join(lines, "\n"))}
}

// parseParagraph consumes lines until a blank or an interrupting construct.
// A setext underline turns the collected lines into a heading instead.
// This handler matches any line and must stay last in the chain.
func parseParagraph(p *parser) []*schema.Node {
	lines := []string{p.it.Next().Text}
	for p.it.HasNext() {
		next := p.it.Peek()
		if next.IsBlank() {
			break
		}
		if m := setextRe.FindStringSubmatch(next.Text); m != nil {
			p.it.Next()
			level := 1
			if m[1][0] == '-' {
				level = 2
			}
			content := strings.TrimSpace(strings.Join(lines, "\n"))
			return []*schema.Node{schema.NewHeading(level, parseInline(content)...)}
		}
		if interruptsParagraph(next.Text) {
			break
		}
		lines = append(lines, next.Text)
		p.it.Next()
	}
	return []*schema.Node{schema.NewParagraph(parseParagraphInlines(lines)...)}
}

// interruptsParagraph mirrors CommonMark: fences, headings, quotes, rules
// and list markers end a paragraph without a blank line, but an ordered
// marker only when it starts at 1 (so prose like "2024. A year in review"
// does not split into a list).
func interruptsParagraph(line string) bool {
	if fenceRe.MatchString(line) || atxRe.MatchString(line) ||
		quoteRe.MatchString(line) || thematicRe.MatchString(line) {
		return true
	}
	if bulletMarkerRe.MatchString(line) {
		return true
	}
	if m := orderedMarkerRe.FindStringSubmatch(line); m != nil && m[2] == "1" {
		return true
	}
	return false
}

/* Helpers */

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// dedentColumns strips n columns of leading whitespace, expanding tabs.
// A tab overshooting the target is replaced by the spare spaces it covers.
func dedentColumns(line string, n int) string {
	columns := 0
	for i, r := range line {
		if columns >= n {
			return line[i:]
		}
		switch r {
		case ' ':
			columns++
		case '\t':
			columns += 4 - (columns % 4)
			if columns > n {
				return strings.Repeat(" ", columns-n) + line[i+1:]
			}
		default:
			return line[i:]
		}
	}
	return ""
}
