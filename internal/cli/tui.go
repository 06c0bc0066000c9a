package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/interact"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/store"
)

// Editor styles
var (
	editorSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editorDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// editorSteps are the nudge distances "+" and "-" cycle through.
var editorSteps = []float64{1, 10, 50}

// sizeCycle is the order "s" walks the size tiers in.
var sizeCycle = []ecosystem.Size{ecosystem.SizeSmall, ecosystem.SizeMedium, ecosystem.SizeLarge}

// =============================================================================
// EditorModel - Keyboard editing of a saved map
// =============================================================================

// EditorModel is the bubbletea model for moving and resizing boxes.
type EditorModel struct {
	Store  *store.Store
	Ctrl   *interact.Controller
	Path   string
	Cursor int
	Step   int // index into editorSteps
	Dirty  bool
	Status string

	save       func(io.Document) error
	confirming bool
}

// NewEditorModel creates an editor over st. save is called with the
// current document on "w".
func NewEditorModel(st *store.Store, path string, save func(io.Document) error) EditorModel {
	return EditorModel{
		Store: st,
		Ctrl:  interact.New(st),
		Path:  path,
		Step:  1,
		save:  save,
	}
}

// Selected returns the name of the highlighted category.
func (m EditorModel) Selected() string {
	cats := m.Store.Categories()
	if len(cats) == 0 {
		return ""
	}
	return cats[min(m.Cursor, len(cats)-1)].Name
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	k := key.String()
	if k != "q" && k != "esc" {
		m.confirming = false
	}
	n := len(m.Store.Categories())
	step := editorSteps[m.Step]
	name := m.Selected()

	var err error
	switch k {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		if m.Dirty && !m.confirming {
			m.confirming = true
			m.Status = "Unsaved changes: w to save, q again to quit"
			return m, nil
		}
		return m, tea.Quit
	case "tab", "n":
		if n > 0 {
			m.Cursor = (m.Cursor + 1) % n
		}
		return m, nil
	case "shift+tab", "p":
		if n > 0 {
			m.Cursor = (m.Cursor + n - 1) % n
		}
		return m, nil
	case "+", "=":
		m.Step = min(m.Step+1, len(editorSteps)-1)
		m.Status = fmt.Sprintf("Step %gpx", editorSteps[m.Step])
		return m, nil
	case "-":
		m.Step = max(m.Step-1, 0)
		m.Status = fmt.Sprintf("Step %gpx", editorSteps[m.Step])
		return m, nil
	case "up", "down", "left", "right":
		dx, dy := arrowDelta(k, step)
		err = m.edit(name, func() error { return m.Ctrl.Nudge(name, interact.Body, dx, dy) })
	case "shift+up", "shift+down", "shift+left", "shift+right":
		dx, dy := arrowDelta(strings.TrimPrefix(k, "shift+"), step)
		err = m.edit(name, func() error { return m.Ctrl.Nudge(name, interact.SouthEast, dx, dy) })
	case "c":
		err = m.edit(name, func() error {
			cols, err := m.Ctrl.CycleColumns(name)
			m.Status = fmt.Sprintf("%s: %d columns", name, cols)
			return err
		})
	case "s":
		err = m.edit(name, func() error {
			cust, _ := m.Store.Customization(name)
			next := nextSize(cust.Size)
			m.Status = fmt.Sprintf("%s: %s", name, next)
			_, err := m.Store.UpdateCategory(name, store.CategoryUpdate{Size: &next})
			return err
		})
	case "r":
		m.Store.Relayout()
		m.Dirty = true
		m.Status = "Layout recomputed"
	case "w", "ctrl+s":
		if err = m.save(m.Store.Snapshot()); err == nil {
			m.Dirty = false
			m.Status = "Saved " + m.Path
		}
	}
	if err != nil {
		m.Status = errors.UserMessage(err)
	}
	return m, nil
}

// edit runs fn against the selected category and marks the map dirty.
func (m *EditorModel) edit(name string, fn func() error) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "the map has no categories")
	}
	if err := fn(); err != nil {
		return err
	}
	m.Dirty = true
	return nil
}

func arrowDelta(key string, step float64) (dx, dy float64) {
	switch key {
	case "up":
		return 0, -step
	case "down":
		return 0, step
	case "left":
		return -step, 0
	case "right":
		return step, 0
	}
	return 0, 0
}

func nextSize(s ecosystem.Size) ecosystem.Size {
	s = s.OrDefault()
	for i, v := range sizeCycle {
		if v == s {
			return sizeCycle[(i+1)%len(sizeCycle)]
		}
	}
	return ecosystem.SizeMedium
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := m.Store.Chart().Title
	if title == "" {
		title = m.Path
	}
	b.WriteString(StyleTitle.Render(title))
	if m.Dirty {
		b.WriteString(StyleWarning.Render(" •"))
	}
	b.WriteString("\n")
	b.WriteString(editorDimStyle.Render("tab select  ←↑↓→ move  shift+←↑↓→ resize  c columns  s size  r relayout  +/- step  w save  q quit"))
	b.WriteString("\n\n")

	cats := m.Store.Categories()
	rows := make([][]string, 0, len(cats))
	for i, cat := range cats {
		cust, _ := m.Store.Customization(cat.Name)
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		var flags []string
		if cust.ManualPosition {
			flags = append(flags, "moved")
		}
		if cust.ManualSize {
			flags = append(flags, "resized")
		}
		if cust.ManualColumns {
			flags = append(flags, "columns")
		}
		rows = append(rows, []string{
			cursor,
			cat.Name,
			string(cust.Size.OrDefault()),
			fmt.Sprintf("%g,%g", cust.Position.X, cust.Position.Y),
			fmt.Sprintf("%g×%g", cust.Width, cust.Height),
			strconv.Itoa(cust.Columns),
			strconv.Itoa(len(cat.Companies)),
			orDash(strings.Join(flags, " ")),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Category", "Size", "Position", "Box", "Cols", "Companies", "Manual").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == m.Cursor {
				return editorSelectedStyle
			}
			if col == 7 {
				return editorDimStyle
			}
			return editorNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(editorDimStyle.Render(fmt.Sprintf("  [%d/%d] step %gpx", min(m.Cursor+1, len(cats)), len(cats), editorSteps[m.Step])))
	if m.Status != "" {
		style := StyleHighlight
		if !m.Dirty {
			style = StyleSuccess
		}
		b.WriteString("  ")
		b.WriteString(style.Render(m.Status))
	}
	b.WriteString("\n")
	return b.String()
}
