// Package autolink decides whether pasted or typed text should become a
// link, and generates GitHub-style anchors for heading links.
package autolink

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S+$`)
var domainRe = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+([a-zA-Z]{2,})(/\S*)?$`)

// knownTLDs is the allowlist for bare-domain detection. It deliberately
// excludes "md": a workspace note named example.md is a file reference,
// not a Moldovan domain, and must never turn into an autolink.
var knownTLDs = map[string]bool{
	"com": true, "net": true, "org": true, "io": true, "dev": true,
	"app": true, "edu": true, "gov": true, "mil": true, "info": true,
	"biz": true, "xyz": true, "ai": true, "co": true, "me": true,
	"tv": true, "cloud": true, "sh": true, "gg": true,
	"uk": true, "de": true, "fr": true, "es": true, "it": true,
	"nl": true, "se": true, "no": true, "fi": true, "dk": true,
	"pl": true, "ch": true, "at": true, "be": true, "pt": true,
	"cz": true, "ru": true, "jp": true, "cn": true, "kr": true,
	"in": true, "br": true, "mx": true, "au": true, "nz": true,
	"ca": true, "us": true, "za": true, "ie": true, "il": true,
}

// ShouldAutoLink reports whether a text fragment should be wrapped in a
// link mark. An explicit scheme always qualifies. Without one, Markdown
// file references never qualify whatever their case, any other token with
// a path separator does, and bare domains qualify when their top-level
// domain is recognized.
func ShouldAutoLink(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return false
	}
	if schemeRe.MatchString(text) {
		return true
	}
	if isMarkdownFile(text) {
		return false
	}
	if strings.Contains(text, "/") {
		return true
	}
	if m := domainRe.FindStringSubmatch(text); m != nil {
		return knownTLDs[strings.ToLower(m[3])]
	}
	return false
}

func isMarkdownFile(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// Slugger builds GitHub-flavored anchors for headings. Duplicate heading
// texts get -1, -2 suffixes in document order, so a Slugger is stateful
// and good for exactly one document pass.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns the anchor for a heading text and records it.
func (s *Slugger) Slug(text string) string {
	base := slugify(text)
	n, dup := s.seen[base]
	if !dup {
		s.seen[base] = 0
		return base
	}
	n++
	s.seen[base] = n
	return base + "-" + strconv.Itoa(n)
}

var hyphenRunRe = regexp.MustCompile(`-{2,}`)

// slugify lowercases, keeps letters, digits, hyphens and underscores,
// converts whitespace to hyphens and drops everything else, then collapses
// hyphen runs and trims hyphens from both ends.
func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}
	slug := hyphenRunRe.ReplaceAllString(b.String(), "-")
	return strings.Trim(slug, "-")
}
