package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/md4h/prosedown/internal/autolink"
	"github.com/md4h/prosedown/internal/outline"
	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/render"
	"github.com/md4h/prosedown/internal/schema"
)

var outlineFormat string
var outlineInteractive bool

func init() {
	outlineCmd.Flags().StringVarP(&outlineFormat, "format", "f", "text", "Output format among 'text', 'json', 'yaml'")
	outlineCmd.Flags().BoolVarP(&outlineInteractive, "interactive", "i", false, "Pick a section interactively and print its content")
	rootCmd.AddCommand(outlineCmd)
}

// outlineEntry is the serializable form of a section for json and yaml
// output. Anchor is the GitHub-style fragment a link to the heading uses.
type outlineEntry struct {
	Level  int    `json:"level" yaml:"level"`
	Text   string `json:"text" yaml:"text"`
	Anchor string `json:"anchor" yaml:"anchor"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
}

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Show the table of contents of a document",
	Long:  `List the headings of a Markdown file together with the extent of their sections.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println("Requires exactly one file argument.")
			os.Exit(1)
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		doc := parser.Parse(string(content))
		sections := outline.Sections(doc)

		if outlineInteractive {
			section, ok := ChooseSection(sections)
			if !ok {
				return
			}
			fmt.Print(renderSection(doc, section))
			return
		}

		switch outlineFormat {
		case "text":
			if len(sections) == 0 {
				fmt.Println("No headings found.")
				return
			}
			for _, section := range sections {
				indent := strings.Repeat("  ", section.Level-1)
				fmt.Printf("%s%s\n", indent, section.Text)
			}
		case "json":
			output, err := json.MarshalIndent(outlineEntries(sections), "", "  ")
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		case "yaml":
			output, err := yaml.Marshal(outlineEntries(sections))
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			fmt.Print(string(output))
		default:
			fmt.Printf("Unsupported format %q. Use 'text', 'json', or 'yaml'.\n", outlineFormat)
			os.Exit(1)
		}
	},
}

func outlineEntries(sections []outline.Section) []outlineEntry {
	slugger := autolink.NewSlugger()
	entries := make([]outlineEntry, 0, len(sections))
	for _, section := range sections {
		entries = append(entries, outlineEntry{
			Level:  section.Level,
			Text:   section.Text,
			Anchor: slugger.Slug(section.Text),
			Start:  section.Pos,
			End:    section.End,
		})
	}
	return entries
}

// renderSection serializes the top-level blocks overlapping a section's
// extent, the heading included. A heading nested inside another block keeps
// its whole containing block.
func renderSection(doc *schema.Node, section outline.Section) string {
	var kept []*schema.Node
	doc.ForEach(func(child *schema.Node, offset int) {
		if offset+child.NodeSize() > section.Pos && offset < section.End {
			kept = append(kept, child)
		}
	})
	return render.Render(schema.NewDoc(kept...))
}
