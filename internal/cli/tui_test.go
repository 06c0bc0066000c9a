package cli

import (
	stdio "io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/store"
)

func newEditor(t *testing.T) (EditorModel, *[]io.Document) {
	t.Helper()
	st := store.New(store.WithLogger(log.New(stdio.Discard)))
	st.SetCompanies([]ecosystem.Company{
		ecosystem.NewCompany("Acme", "Infra", "", "", 0),
		ecosystem.NewCompany("Globex", "Infra", "", "", 1),
		ecosystem.NewCompany("Initech", "Data", "", "", 2),
	})
	var saved []io.Document
	m := NewEditorModel(st, "map.json", func(d io.Document) error {
		saved = append(saved, d)
		return nil
	})
	return m, &saved
}

func press(m EditorModel, keys ...tea.KeyMsg) (EditorModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(EditorModel)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestEditorSelection(t *testing.T) {
	m, _ := newEditor(t)
	first := m.Selected()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Selected() == first {
		t.Error("tab did not change the selection")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Selected() != first {
		t.Errorf("selection should wrap around, got %q", m.Selected())
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Selected() == first {
		t.Error("shift+tab did not move back")
	}
}

func TestEditorMoveAndResize(t *testing.T) {
	m, _ := newEditor(t)
	name := m.Selected()
	start, _ := m.Store.Customization(name)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyDown})
	got, _ := m.Store.Customization(name)
	want := ecosystem.Position{X: start.Position.X + 10, Y: start.Position.Y + 10}
	if got.Position != want || !got.ManualPosition {
		t.Errorf("position = %+v, want %+v manual", got.Position, want)
	}
	if !m.Dirty {
		t.Error("move should mark the map dirty")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftRight}, tea.KeyMsg{Type: tea.KeyShiftDown})
	got, _ = m.Store.Customization(name)
	if got.Width != start.Width+10 || got.Height != start.Height+10 || !got.ManualSize {
		t.Errorf("size = %gx%g, want %gx%g manual", got.Width, got.Height, start.Width+10, start.Height+10)
	}
}

func TestEditorStep(t *testing.T) {
	m, _ := newEditor(t)
	name := m.Selected()
	start, _ := m.Store.Customization(name)

	m, _ = press(m, runes("+"), runes("+"), tea.KeyMsg{Type: tea.KeyRight})
	got, _ := m.Store.Customization(name)
	if got.Position.X != start.Position.X+50 {
		t.Errorf("x = %g, want %g", got.Position.X, start.Position.X+50)
	}

	m, _ = press(m, runes("-"), runes("-"), runes("-"))
	if editorSteps[m.Step] != 1 {
		t.Errorf("step = %g, want 1", editorSteps[m.Step])
	}
}

func TestEditorSizeAndColumns(t *testing.T) {
	m, _ := newEditor(t)
	name := m.Selected()

	m, _ = press(m, runes("s"))
	got, _ := m.Store.Customization(name)
	if got.Size != ecosystem.SizeLarge {
		t.Errorf("size = %q, want large", got.Size)
	}

	m, _ = press(m, runes("c"))
	if !strings.Contains(m.Status, "columns") {
		t.Errorf("status = %q", m.Status)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight}, runes("r"))
	got, _ = m.Store.Customization(name)
	if got.ManualPosition {
		t.Error("relayout should clear manual positions")
	}
}

func TestEditorSaveAndQuit(t *testing.T) {
	m, saved := newEditor(t)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyLeft}, runes("q"))
	if isQuit(cmd) {
		t.Fatal("q with unsaved changes should ask first")
	}
	if !strings.Contains(m.Status, "Unsaved") {
		t.Errorf("status = %q", m.Status)
	}

	m, _ = press(m, runes("w"))
	if len(*saved) != 1 || m.Dirty {
		t.Fatalf("saved %d documents, dirty=%v", len(*saved), m.Dirty)
	}
	if len((*saved)[0].Companies) != 3 {
		t.Errorf("saved document has %d companies", len((*saved)[0].Companies))
	}

	if _, cmd = press(m, runes("q")); !isQuit(cmd) {
		t.Error("q after saving should quit")
	}
}

func TestEditorView(t *testing.T) {
	m, _ := newEditor(t)
	view := m.View()
	for _, want := range []string{"Infra", "Data", "Companies", "step 10px"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNextSize(t *testing.T) {
	tests := []struct{ in, want ecosystem.Size }{
		{"", ecosystem.SizeLarge},
		{ecosystem.SizeSmall, ecosystem.SizeMedium},
		{ecosystem.SizeMedium, ecosystem.SizeLarge},
		{ecosystem.SizeLarge, ecosystem.SizeSmall},
	}
	for _, tt := range tests {
		if got := nextSize(tt.in); got != tt.want {
			t.Errorf("nextSize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
