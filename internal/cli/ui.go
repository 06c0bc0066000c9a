package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Styles shared by the command output and the editor.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleLabel    = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner  = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	separator   = " · "
	placeholder = "—"
)

// =============================================================================
// Printer
// =============================================================================

// printer writes the human-readable command output. Logs go to the
// logger; everything a user reads as a result goes through a printer so
// commands can be pointed at any writer.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer { return &printer{w: w} }

func (p *printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p *printer) blank() { fmt.Fprintln(p.w) }

func (p *printer) status(icon lipgloss.Style, mark, msg string) {
	p.line(icon.Render(mark) + " " + msg)
}

func (p *printer) success(format string, args ...any) {
	p.status(StyleSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func (p *printer) fail(format string, args ...any) {
	p.status(styleError, iconError, fmt.Sprintf(format, args...))
}

func (p *printer) warn(format string, args ...any) {
	p.status(StyleWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) info(format string, args ...any) {
	p.status(styleLabel, iconInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line under the previous status.
func (p *printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) file(path string) {
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// field prints an aligned label and value; empty values show a dash.
func (p *printer) field(label, value string) {
	key := styleLabel.Width(14).Render(label)
	if value == "" {
		p.line(key + " " + StyleDim.Render(placeholder))
		return
	}
	p.line(key + " " + StyleValue.Render(value))
}

// stats prints the size of a map on one line, followed by whether the
// artifacts came from the cache.
func (p *printer) stats(companies, categories, logos int, cached bool) {
	count := func(n int, unit string) string {
		return StyleNumber.Render(fmt.Sprint(n)) + StyleDim.Render(" "+unit)
	}
	parts := []string{count(companies, "companies"), count(categories, "categories")}
	if logos > 0 {
		parts = append(parts, count(logos, "logos"))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	p.line("  " + strings.Join(parts, StyleDim.Render(separator)))
}

func (p *printer) next(description, command string) {
	p.line(StyleDim.Render(description+":") + " " + styleCommand.Render(command))
}

// =============================================================================
// Tables
// =============================================================================

// renderTable formats rows with a rounded border and a bold header.
func renderTable(headers []string, rows [][]string) string {
	header := styleLabel.Bold(true).Padding(0, 1)
	cell := StyleValue.Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Render()
}
