package cmd

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/md4h/prosedown/internal/outline"
)

/*
 * The interactive section picker uses Bubble Tea under the hood.
 * All BubbleTea-related code is present in this file to make easy to refactor or switch to another library someday.
 */

var (
	listWidth             = 20
	listHeight            = 14
	listTitleStyle        = lipgloss.NewStyle().MarginLeft(2)
	listItemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	listSelectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle             = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// ChooseSection asks the user to pick one section of the outline. The
// second return value is false when the user quit without choosing.
func ChooseSection(sections []outline.Section) (outline.Section, bool) {
	/* Inspired by https://github.com/charmbracelet/bubbletea/blob/master/examples/list-simple/ */
	res, err := tea.NewProgram(NewSectionModel(sections)).Run()
	if err != nil {
		log.Fatal(err)
	}
	model := res.(SectionModel)
	if model.choice < 0 {
		return outline.Section{}, false
	}
	return sections[model.choice], true
}

func NewSectionModel(sections []outline.Section) SectionModel {
	items := []list.Item{}
	for i, section := range sections {
		items = append(items, SectionItem{
			label: strings.Repeat("  ", section.Level-1) + section.Text,
			index: i,
		})
	}

	l := list.New(items, sectionDelegate{}, listWidth, listHeight)
	l.Title = "Which section?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.Styles.Title = listTitleStyle
	l.Styles.HelpStyle = helpStyle

	return SectionModel{list: l, choice: -1}
}

type SectionItem struct {
	label string
	index int
}

func (i SectionItem) FilterValue() string { return "" }

type sectionDelegate struct{}

func (d sectionDelegate) Height() int                             { return 1 }
func (d sectionDelegate) Spacing() int                            { return 0 }
func (d sectionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d sectionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(SectionItem)
	if !ok {
		return
	}

	fn := listItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return listSelectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(i.label))
}

type SectionModel struct {
	list     list.Model
	choice   int
	quitting bool
}

func (m SectionModel) Init() tea.Cmd {
	return nil
}

func (m SectionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch keypress := msg.String(); keypress {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			i, ok := m.list.SelectedItem().(SectionItem)
			if ok {
				m.choice = i.index
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SectionModel) View() string {
	if m.choice >= 0 || m.quitting {
		return ""
	}
	return "\n" + m.list.View()
}
