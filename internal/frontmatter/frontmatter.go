// Package frontmatter handles the YAML metadata block a document may open
// with.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the raw text between the delimiters, kept verbatim so an
// unedited block never churns on save.
type FrontMatter string

// Split detaches a leading front matter block. The opening delimiter must
// be the very first line; an unterminated block is not front matter (a
// lone --- stays a thematic break).
func Split(md string) (frontMatter FrontMatter, rest string, ok bool) {
	if !strings.HasPrefix(md, "---\n") {
		return "", md, false
	}

	lines := strings.Split(md[len("---\n"):], "\n")
	for i, line := range lines {
		if line == "---" || line == "..." {
			return FrontMatter(strings.Join(lines[:i], "\n")), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", md, false
}

// Validate reports whether the block is well-formed YAML. A malformed
// block still round-trips untouched, callers only warn.
func (f FrontMatter) Validate() error {
	_, err := f.AsNode()
	return err
}

func (f FrontMatter) AsNode() (*yaml.Node, error) {
	var frontMatter = new(yaml.Node)
	if err := yaml.Unmarshal([]byte(f), frontMatter); err != nil {
		return nil, err
	}
	if frontMatter.Kind > 0 { // Happen when no Front Matter is present
		frontMatter = frontMatter.Content[0]
	}
	return frontMatter, nil
}

func (f FrontMatter) AsMap() (map[string]any, error) {
	var attributes = make(map[string]any)
	if err := yaml.Unmarshal([]byte(f), attributes); err != nil {
		return nil, err
	}
	return attributes, nil
}
