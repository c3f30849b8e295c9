package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/frontmatter"
	"github.com/md4h/prosedown/pkg/markdown"
	"github.com/md4h/prosedown/pkg/text"
)

var previewOutput string

func init() {
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Write the HTML page to a file instead of stdout")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a Markdown file to HTML",
	Long:  `Convert a Markdown file into a standalone HTML page with highlighted code blocks.`,
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

		title := text.TrimExtension(filepath.Base(args[0]))
		// The YAML block is metadata, not content: lift the title out and
		// keep the block itself off the page.
		body := string(content)
		if fm, rest, ok := frontmatter.Split(body); ok {
			body = rest
			if attributes, err := fm.AsMap(); err == nil {
				if fmTitle, ok := attributes["title"].(string); ok && fmTitle != "" {
					title = fmTitle
				}
			}
		}
		page := markdown.Page(title, body)

		if previewOutput == "" {
			fmt.Print(page)
			return
		}
		if err := os.WriteFile(previewOutput, []byte(page), 0644); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Preview written to %s\n", previewOutput)
	},
}
