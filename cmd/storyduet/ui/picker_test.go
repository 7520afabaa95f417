package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testModel() Model {
	return Model{themes: []string{"火星", "深海", customEntry}}
}

func TestPickerNavigation(t *testing.T) {
	m := testModel()

	next, _ := m.Update(key(tea.KeyDown))
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	next, _ = m.Update(key(tea.KeyUp))
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	// The cursor stops at the list edges.
	next, _ = m.Update(key(tea.KeyUp))
	m = next.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 at the top edge", m.cursor)
	}

	for i := 0; i < 5; i++ {
		next, _ = m.Update(key(tea.KeyDown))
		m = next.(Model)
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 at the bottom edge", m.cursor)
	}
}

func TestPickerSelectTheme(t *testing.T) {
	m := testModel()

	next, _ := m.Update(key(tea.KeyDown))
	m = next.(Model)
	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)

	if m.choice != "深海" {
		t.Errorf("choice = %q, want 深海", m.choice)
	}
	if m.aborted {
		t.Error("selection should not abort")
	}
	if cmd == nil {
		t.Error("selection should quit the program")
	}
}

func TestPickerCustomEntry(t *testing.T) {
	m := testModel()
	m.cursor = len(m.themes) - 1

	next, _ := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	if !m.entering {
		t.Fatal("last entry should switch to free-text input")
	}

	for _, s := range []string{"月", "の", "裏", "側", "X"} {
		next, _ = m.Update(runes(s))
		m = next.(Model)
	}
	// Backspace removes one rune, not one byte.
	next, _ = m.Update(key(tea.KeyBackspace))
	m = next.(Model)
	if m.input != "月の裏側" {
		t.Errorf("input = %q, want 月の裏側", m.input)
	}

	next, _ = m.Update(key(tea.KeyEnter))
	m = next.(Model)
	if m.choice != "月の裏側" {
		t.Errorf("choice = %q, want 月の裏側", m.choice)
	}
}

func TestPickerAbort(t *testing.T) {
	m := testModel()
	next, _ := m.Update(key(tea.KeyEsc))
	m = next.(Model)
	if !m.aborted {
		t.Error("esc should abort selection")
	}

	m = testModel()
	next, _ = m.Update(key(tea.KeyCtrlC))
	m = next.(Model)
	if !m.aborted {
		t.Error("ctrl+c should abort selection")
	}

	// Abort works from free-text mode too.
	m = testModel()
	m.entering = true
	next, _ = m.Update(key(tea.KeyEsc))
	m = next.(Model)
	if !m.aborted {
		t.Error("esc should abort free-text input")
	}
}

func TestPickerView(t *testing.T) {
	m := testModel()
	view := m.View()

	for _, want := range []string{"テーマを選んでください", "1. 火星", "2. 深海", customEntry} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}

	m.entering = true
	m.input = "月の裏側"
	view = m.View()
	if !strings.Contains(view, "月の裏側") {
		t.Errorf("free-text view is missing the input:\n%s", view)
	}
}
