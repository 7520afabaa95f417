// Package ui holds the interactive theme picker shown when no theme flag is
// given: a cursor-driven menu over the configured theme list with a final
// free-text entry for custom themes.
package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user backs out of theme selection.
var ErrAborted = errors.New("theme selection aborted")

const customEntry = "カスタム（自由入力）"

type Model struct {
	themes   []string
	cursor   int
	entering bool
	input    string
	choice   string
	aborted  bool
}

// Choose presents the theme menu and blocks until a theme is picked. An
// empty custom entry falls back to the first configured theme.
func Choose(themes []string) (string, error) {
	items := make([]string, 0, len(themes)+1)
	items = append(items, themes...)
	items = append(items, customEntry)

	program := tea.NewProgram(Model{themes: items})
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("theme picker failed: %w", err)
	}

	m := final.(Model)
	if m.aborted {
		return "", ErrAborted
	}
	if m.choice == "" {
		return themes[0], nil
	}
	return m.choice, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.entering {
		switch key.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			m.choice = strings.TrimSpace(m.input)
			return m, tea.Quit
		case "backspace":
			if runes := []rune(m.input); len(runes) > 0 {
				m.input = string(runes[:len(runes)-1])
			}
		default:
			switch key.Type {
			case tea.KeyRunes:
				m.input += string(key.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.themes)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor == len(m.themes)-1 {
			m.entering = true
			return m, nil
		}
		m.choice = m.themes[m.cursor]
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F780FF")).
		Bold(true)

	cursorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8BE9FD"))

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("テーマを選んでください") + "\n\n")

	if m.entering {
		b.WriteString("自由入力: " + m.input + "█\n\n")
		b.WriteString(hintStyle.Render("enterで決定 / escで中止") + "\n")
		return b.String()
	}

	for i, theme := range m.themes {
		line := fmt.Sprintf("%d. %s", i+1, theme)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + hintStyle.Render("↑/↓で移動 / enterで決定 / qで中止") + "\n")
	return b.String()
}
