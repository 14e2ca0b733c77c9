package terminal

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for the picker UI.
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerCursorStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("236"))

	pickerDisabledStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(lipgloss.Color("8"))

	pickerDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("7")).
				PaddingLeft(6)

	pickerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// ErrNotInteractive is returned by RunPicker when stdin is not a terminal.
var ErrNotInteractive = errors.New("an interactive terminal is required")

// PickerItem is one selectable row.
type PickerItem struct {
	Label    string
	Detail   string
	Disabled bool
}

// PickerModel is the bubbletea model for a single-choice list.
type PickerModel struct {
	title     string
	items     []PickerItem
	cursor    int
	confirmed bool
	quitted   bool
}

// NewPicker creates a picker with the cursor on the first enabled item at or
// after start.
func NewPicker(title string, items []PickerItem, start int) PickerModel {
	m := PickerModel{title: title, items: items}
	if start < 0 || start >= len(items) {
		start = 0
	}
	m.cursor = start
	if len(items) > 0 && items[start].Disabled {
		m.cursor = m.next(start, 1)
	}
	return m
}

// next returns the nearest enabled index from cur in direction dir, or cur.
func (m PickerModel) next(cur, dir int) int {
	for i := cur + dir; i >= 0 && i < len(m.items); i += dir {
		if !m.items[i].Disabled {
			return i
		}
	}
	return cur
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.cursor = m.next(m.cursor, -1)
		case "down", "j":
			m.cursor = m.next(m.cursor, 1)
		case "enter":
			if len(m.items) == 0 || m.items[m.cursor].Disabled {
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.quitted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if len(m.items) == 0 {
		return "Nothing to choose from.\n"
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, item := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := marker + item.Label
		switch {
		case item.Disabled:
			b.WriteString(pickerDisabledStyle.Render(line))
		case i == m.cursor:
			b.WriteString(pickerCursorStyle.Render(line))
		default:
			b.WriteString(pickerItemStyle.Render(line))
		}
		b.WriteString("\n")
		if item.Detail != "" {
			b.WriteString(pickerDetailStyle.Render(item.Detail))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pickerHelpStyle.Render("↑/↓ navigate • enter select • q quit"))
	b.WriteString("\n")
	return b.String()
}

// Cursor returns the highlighted index.
func (m PickerModel) Cursor() int {
	return m.cursor
}

// Confirmed returns true if the user confirmed the selection.
func (m PickerModel) Confirmed() bool {
	return m.confirmed
}

// Quitted returns true if the user quit without confirming.
func (m PickerModel) Quitted() bool {
	return m.quitted
}

// RunPicker runs the interactive picker and returns the chosen index, or -1
// if the user quit.
func RunPicker(title string, items []PickerItem, start int) (int, error) {
	if !IsStdinTTY() {
		return -1, ErrNotInteractive
	}
	if len(items) == 0 {
		return -1, nil
	}

	p := tea.NewProgram(NewPicker(title, items, start))
	finalModel, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("picker UI error: %w", err)
	}

	m, ok := finalModel.(PickerModel)
	if !ok {
		return -1, fmt.Errorf("unexpected model type")
	}
	if !m.Confirmed() {
		return -1, nil
	}
	return m.Cursor(), nil
}
