package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	godiffpatch "github.com/sourcegraph/go-diff-patch"
	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/core"
	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/render"
	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/pkg/filesystem"
)

var fmtCheck bool
var fmtWrite bool

func init() {
	fmtCmd.Flags().BoolVarP(&fmtCheck, "check", "", false, "Show a diff for files whose formatting differs and exit non-zero")
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Rewrite files in place instead of printing them")
	rootCmd.AddCommand(fmtCmd)
}

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Reformat Markdown files",
	Long:  `Parse Markdown files and serialize them back in canonical form.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("Missing argument. Pass at least one file or directory.")
			os.Exit(1)
		}

		paths, err := collectMarkdownFiles(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		dirty := false
		for _, path := range paths {
			original, err := os.ReadFile(path)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			formatted := render.Render(schema.Normalize(parser.Parse(string(original))))
			if formatted == string(original) {
				continue
			}
			dirty = true

			switch {
			case fmtCheck:
				printDiff(godiffpatch.GeneratePatch(displayPath(path), string(original), formatted))
			case fmtWrite:
				if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
					fmt.Println(err)
					os.Exit(1)
				}
				fmt.Println(displayPath(path))
			default:
				fmt.Print(formatted)
			}
		}

		if fmtCheck && dirty {
			os.Exit(1)
		}
	},
}

// collectMarkdownFiles expands directories into the Markdown files they
// contain, honoring the configured extensions. Explicit file arguments are
// kept as given.
func collectMarkdownFiles(args []string) ([]string, error) {
	cfg := core.CurrentConfig()

	var paths []string
	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !stat.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := filesystem.ListFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if cfg.ConfigFile.SupportExtension(file) {
				paths = append(paths, file)
			}
		}
	}
	return paths, nil
}

func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func printDiff(diff string) {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			color.Red(line)
		} else if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			color.Green(line)
		} else {
			println(line)
		}
	}
}
