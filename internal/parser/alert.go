package parser

import (
	"regexp"

	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/pkg/text"
)

// A GitHub alert is a blockquote whose first line is a marker like [!NOTE].
// The marker must open an unstyled text token, a bolded or linked [!NOTE]
// stays a plain quote.
var alertMarkerRe = regexp.MustCompile(`^\[!([A-Za-z]+)\][ \t]*(\n|$)`)

// alertFromBlocks reclassifies parsed blockquote content as an alert.
// It returns nil when the content does not open with a known marker.
//
// The marker never survives as document text. It is stripped from the
// first paragraph, and whatever break or whitespace fragments the
// stripping leaves behind are dropped so no ghost empty paragraph
// appears above the alert body. An alert is never childless: when the
// quote held nothing but the marker, an empty paragraph is synthesized
// so the caret has a place to land.
func alertFromBlocks(children []*schema.Node) *schema.Node {
	if len(children) == 0 {
		return nil
	}
	first := children[0]
	if first.Type != schema.NodeParagraph || len(first.Children) == 0 {
		return nil
	}
	lead := first.Children[0]
	if lead.Type != schema.NodeText || len(lead.Marks) > 0 {
		return nil
	}
	m := alertMarkerRe.FindStringSubmatch(lead.Text)
	if m == nil {
		return nil
	}
	alert, known := schema.ParseAlertType(m[1])
	if !known {
		return nil
	}

	rest := lead.Text[len(m[0]):]
	content := append([]*schema.Node(nil), first.Children[1:]...)
	if rest != "" {
		content = append([]*schema.Node{schema.NewText(rest)}, content...)
	}
	for len(content) > 0 {
		c := content[0]
		if c.Type == schema.NodeHardBreak || (c.Type == schema.NodeText && text.IsBlank(c.Text)) {
			content = content[1:]
			continue
		}
		break
	}

	blocks := append([]*schema.Node(nil), children[1:]...)
	if len(content) > 0 {
		blocks = append([]*schema.Node{schema.NewParagraph(content...)}, blocks...)
	}
	if len(blocks) == 0 {
		blocks = []*schema.Node{schema.NewParagraph()}
	}
	return schema.NewGithubAlert(alert, blocks...)
}

// PromoteAlerts rescans a document for blockquotes that have been edited
// into alert shape and converts them in place. The input document is not
// modified; when nothing changes the same pointer comes back, so callers
// can detect a no-op by identity.
//
// Callers decide when to run this. The editor deliberately skips it while
// the user is typing inside the marker paragraph, otherwise the quote
// would flip to an alert under the caret mid-keystroke.
func PromoteAlerts(doc *schema.Node) *schema.Node {
	clone := doc.Clone()
	if !promoteAlertsIn(clone) {
		return doc
	}
	return clone
}

func promoteAlertsIn(n *schema.Node) bool {
	changed := false
	for i, child := range n.Children {
		if child.Type == schema.NodeBlockquote {
			if alert := alertFromBlocks(child.Children); alert != nil {
				n.Children[i] = alert
				changed = true
				continue
			}
		}
		if promoteAlertsIn(child) {
			changed = true
		}
	}
	return changed
}
