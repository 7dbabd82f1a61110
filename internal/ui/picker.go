// Package ui holds the terminal selection prompt used in interactive
// scraping mode.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxVisible = 12

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Cancel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "q", "ctrl+c"),
		key.WithHelp("esc", "use first"),
	),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// picker is a single-choice list.
type picker struct {
	title     string
	options   []string
	cursor    int
	chosen    int
	done      bool
	cancelled bool
	help      help.Model
}

func newPicker(title string, options []string) picker {
	return picker{title: title, options: options, chosen: -1, help: help.New()}
}

func (m picker) Init() tea.Cmd {
	return nil
}

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Select):
			m.chosen = m.cursor
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, keys.Cancel):
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// window returns the slice of options to draw so the cursor stays visible.
func (m picker) window() (start, end int) {
	if len(m.options) <= maxVisible {
		return 0, len(m.options)
	}
	start = m.cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end = start + maxVisible
	if end > len(m.options) {
		end = len(m.options)
		start = end - maxVisible
	}
	return start, end
}

func (m picker) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	start, end := m.window()
	if start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more above", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		line := fmt.Sprintf("%2d. %s", i+1, m.options[i])
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if end < len(m.options) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more below", len(m.options)-end)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}
