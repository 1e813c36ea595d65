package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
)

var (
	colorHeader  = lipgloss.Color("5")
	colorSuccess = lipgloss.Color("2")
	colorError   = lipgloss.Color("1")
	colorWarning = lipgloss.Color("3")
	colorInfo    = lipgloss.Color("6")
	colorBorder  = lipgloss.Color("8")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle    = lipgloss.NewStyle().Foreground(colorError)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	infoStyle   = lipgloss.NewStyle().Foreground(colorInfo)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("4")).Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func status(ok bool, yes, no string) string {
	if ok {
		return okStyle.Render("✓ " + yes)
	}
	return errStyle.Render("✗ " + no)
}

// title turns text_secondary into Text_Secondary.
func title(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "_")
}

func swatch(c palette.Color) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("████")
}

func heading(w io.Writer, s string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(s))
}

func printPalette(w io.Writer, p *palette.Palette) {
	heading(w, "Extracted Color Palette:")
	t := newTable("Role", "Color", "Hex", "Luminance")
	for _, c := range p.Ordered() {
		t.Row(title(string(c.Role)), swatch(c), c.Hex(), fmt.Sprintf("%.3f", c.Luminance()))
	}
	fmt.Fprintln(w, t)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %.2f\n", titleStyle.Render("Quality Score:"), p.Quality)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Extraction Method:"), p.Method)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Accessibility Compliant:"), check(p.MeetsAccessibility()))
}

func printResults(w io.Writer, results []theme.Result) {
	heading(w, "Application Results:")
	t := newTable("Application", "Status", "Config Path", "Backup", "Reloaded")
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
		t.Row(r.App, status(r.Success, "Success", "Failed"), r.OutputPath, check(r.BackupCreated), check(r.Reloaded))
	}
	fmt.Fprintln(w, t)

	if ok < len(results) {
		heading(w, errStyle.Bold(true).Render("Errors:"))
		for _, r := range results {
			if !r.Success {
				fmt.Fprintln(w, errStyle.Render("• "+r.App+": "+r.Error))
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Successfully themed %d/%d applications", ok, len(results))))
}

// previewLines keeps the first n lines, marking the cut with "...".
func previewLines(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = append(lines[:n:n], "...")
	}
	return strings.Join(lines, "\n")
}
